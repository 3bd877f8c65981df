// Package job provides infrastructure for asynchronous background job
// processing, including persistence, recovery, and worker management.
package job
