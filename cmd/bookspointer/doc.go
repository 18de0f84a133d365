// Package main hosts the bookspointer entrypoint.
//
// Architecture overview:
//   - Crawl pipeline: internal/scrape walks author listing pages on the
//     content site, resolves each book's ordered content pages through
//     the landing-page anchors or the AJAX pager, extracts and cleans
//     the page fragments, and persists finished books to the internal
//     catalog. Books behind a login wall are appended to a skip log and
//     never persisted.
//   - Author sync: internal/syncer pages through the external author
//     source, appends missing authors to the spreadsheet ledger, and
//     promotes unscraped ledger rows into the catalog. The scraped flag
//     flips before the catalog write, so reruns never duplicate.
//   - Posting: internal/publish pushes unposted catalog books to the
//     publishing platform as multipart requests, rotating through the
//     verified user tokens. A book counts as posted once the platform
//     answers, whatever the answer says.
//   - Ops surface: internal/api serves /healthz, /readyz, /metrics, and
//     POST /v1/runs/{name} triggers for the three pipelines, each
//     single-flight.
//   - Configuration & plumbing: Viper populates config from file and
//     BOOKSPOINTER_* env vars; zap provides structured logging;
//     Prometheus counters track pages, books, authors, and posts.
//
// Run locally: go run ./cmd/bookspointer serve --config config.yaml,
// or invoke the crawl/sync/post subcommands directly for one-shot runs.
package main
