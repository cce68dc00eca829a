// Package api routes raw TCP requests to the article handlers and hosts the
// admin HTTP surface. Routes, matched in order on the literal request text:
//   - POST /articles, GET /articles/{id}, GET /articles, PUT /articles/{id},
//     DELETE /articles/{id} for CRUD.
//   - POST /scrape/{source} to run the ranking scrape.
//   - DELETE /scrape/source/{source} to drop every scraped row.
//
// The admin router serves GET /healthz, /readyz and /metrics over net/http.
package api
