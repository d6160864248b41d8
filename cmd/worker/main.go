package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodue/internal/config"
	"nodue/internal/filestore"
	"nodue/internal/queue"
	"nodue/internal/scanclient"
	"nodue/internal/store"
	"nodue/internal/student"
)

// Worker consumes upload messages, re-verifies stored files, and records a
// scan verdict on the upload history row. Verdicts never touch the review
// status: that stays a faculty decision.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	repo := student.NewRepository(db.Client)
	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("filestore init failed: %v", err)
	}
	scanner := scanclient.New(cfg.ScanServiceURL, cfg.ScanSkip)

	if !cfg.ScanSkip {
		if err := scanner.Health(ctx); err != nil {
			log.Printf("WARNING: scan service not available: %v", err)
			log.Println("Worker will retry scanning when uploads arrive")
		} else {
			log.Println("Scan service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for uploads...")
	for msg := range messages {
		if msg.Type != queue.TypeUpload {
			continue
		}

		id := string(msg.Body)
		log.Printf("scanning upload %s", id)

		up, err := repo.GetUpload(ctx, id)
		if err != nil {
			log.Printf("fetch upload %s failed: %v", id, err)
			continue
		}

		verdict := scanUpload(ctx, files, scanner, up)
		if err := repo.UpdateUploadScan(ctx, id, verdict); err != nil {
			log.Printf("record verdict for %s failed: %v", id, err)
			continue
		}
		log.Printf("upload %s scanned: %s", id, verdict)

		time.Sleep(10 * time.Millisecond) // Small delay between scans
	}

	log.Println("worker stopped")
}

// scanUpload re-checks the stored file's magic bytes locally, then asks the
// external scan service for a second opinion.
func scanUpload(ctx context.Context, files *filestore.Store, scanner *scanclient.Client, up student.Upload) string {
	f, err := files.Open(up.Filename)
	if err != nil {
		log.Printf("open %s failed: %v", up.Filename, err)
		return student.ScanFailed
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	if !filestore.IsPDF(head[:n]) {
		return student.ScanSuspect
	}

	if _, err := f.Seek(0, 0); err != nil {
		return student.ScanFailed
	}
	result, err := scanner.Scan(ctx, up.Filename, f)
	if err != nil {
		log.Printf("scan service failed for %s: %v", up.ID, err)
		return student.ScanFailed
	}
	if !result.Clean {
		return student.ScanSuspect
	}
	return student.ScanClean
}
