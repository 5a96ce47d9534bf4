// Package jobs runs background work next to the HTTP server.
//
// TotalsSyncProcessor periodically persists live pax and cost for the
// service groups of the upcoming service dates, so stored totals follow
// late bookings and cancellations without a dashboard reading each group:
//
//	job := jobs.NewTotalsSyncProcessor(jobs.TotalsSyncConfig{
//	    Syncer:   groupService,
//	    Interval: 5 * time.Minute,
//	    Days:     2,
//	    Location: rome,
//	})
//	job.Start()
//	defer job.Stop()
//
// Jobs log errors and keep running.
package jobs
