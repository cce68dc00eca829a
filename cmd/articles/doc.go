// Package main hosts the articles service entrypoint.
//
// Architecture overview:
//   - TCP front end: internal/server accepts raw connections on server.addr, queues them in a bounded in-memory
//     queue and fans them out to server.workers goroutines. Each connection gets one 1024-byte read, one response
//     and is then closed.
//   - Routing: internal/api matches the request text against an ordered method+prefix table and calls the CRUD,
//     scrape or delete-by-source handler. Unmatched requests get a fixed 404.
//   - Persistence: internal/storage/postgres keeps articles in a pgx pool bounded by db.max_conns; the memory
//     driver exists for local runs.
//   - Scrape pipeline: a Colly fetch of scrape.url, goquery/cascadia selection of scrape.selector, and one
//     transactional batch insert of at most scrape.limit rows tagged scrape.source.
//   - Observability: zap logs carry conn_id, route, status and duration_ms; Prometheus collectors are exported on
//     the admin server (/metrics) next to /healthz and /readyz.
//
// Quick checklist:
//   - Set DATABASE_URL (or ARTICLES_DB_DRIVER=memory), then override any key with ARTICLES_<SECTION>_<KEY>.
//   - Run locally: go run ./cmd/articles -config config.yaml
//   - Refresh scraped rows without serving: go run ./cmd/articles -scrape-once
package main
