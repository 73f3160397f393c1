// Package workflow orchestrates the full pipeline for a batch of episodes:
// parse subtitles, build episode contexts, analyze (cache-first with a
// rule-based fallback), plan segments, cut clips, and write reports.
// Episodes are independent units of work processed by a bounded worker
// pool; one episode's failure never aborts the batch.
package workflow
