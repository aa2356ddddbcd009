// Package jobs provides the device-side client for AWS IoT Jobs.
//
// The client discovers pending job executions, claims the next one and
// reports execution progress back to the service. Requests and replies are
// correlated with per-request client tokens over paired accepted/rejected
// topics; replies carrying a foreign token are logged and skipped while the
// client keeps waiting for its own.
//
// # Usage
//
//	client, err := jobs.New(ctx, mqttClient)
//	job, err := client.StartNext(ctx, nil)
//	if job != nil {
//		...do the work...
//		err = job.Update(ctx, jobs.StatusSucceeded, nil)
//	}
package jobs
