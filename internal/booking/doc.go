// Package booking holds the classroom booking rules that do not depend on storage:
// civil dates and time windows, overlap detection, the status machine, and the
// per-role quota.
package booking
