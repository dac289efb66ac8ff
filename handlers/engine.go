// handlers/engine.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/mechanicalh600-lang/CheckList/config"
	"github.com/mechanicalh600-lang/CheckList/pkg/blob"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
	"github.com/mechanicalh600-lang/CheckList/pkg/flow"
	"github.com/mechanicalh600-lang/CheckList/pkg/history"
	"github.com/mechanicalh600-lang/CheckList/pkg/submission"
)

// Shared engine state behind the HTTP surface. Flows are in-memory and owned
// by the manager; the history cache is process-wide so the submission pipeline
// can invalidate what the read handlers serve.
var (
	flows        = flow.NewManager()
	historyCache = history.NewCache(history.DefaultTTL, nil)

	blobOnce  sync.Once
	blobStore blob.Store

	pipeOnce sync.Once
	pipe     *submission.Pipeline
)

func blobs() blob.Store {
	blobOnce.Do(func() {
		// The blob client outlives any request.
		store, err := blob.FromEnv(context.Background())
		if err != nil {
			log.Printf("handlers: blob store init failed, media uploads disabled: %v", err)
			return
		}
		blobStore = store
	})
	return blobStore
}

func resolver() *flow.Resolver {
	return flow.NewResolver(flow.NewGormMasterStore(config.DB))
}

func provisioner() *checklist.Provisioner {
	return checklist.NewProvisioner(checklist.NewGormTemplateStore(config.DB), checklist.NewGeminiGenerator())
}

func pipeline() *submission.Pipeline {
	pipeOnce.Do(func() {
		store := submission.NewGormStore(config.DB)
		pipe = submission.NewPipeline(
			store,
			store,
			blobs(),
			submission.NewBackupSlot(""),
			historyCache,
			checklist.NewGeminiGenerator(),
		)
	})
	return pipe
}

func historyService() *history.Service {
	return history.NewService(historyCache, history.NewGormFetcher(config.DB))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
