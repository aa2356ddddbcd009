package jobs

import "fmt"

func topicGet(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/get", thing)
}

func topicGetAccepted(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/get/accepted", thing)
}

func topicGetRejected(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/get/rejected", thing)
}

func topicStartNext(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/start-next", thing)
}

func topicStartNextAccepted(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/start-next/accepted", thing)
}

func topicStartNextRejected(thing string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/start-next/rejected", thing)
}

func topicJobGet(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/get", thing, jobID)
}

func topicJobGetAccepted(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/get/accepted", thing, jobID)
}

func topicJobGetRejected(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/get/rejected", thing, jobID)
}

func topicJobUpdate(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/update", thing, jobID)
}

func topicJobUpdateAccepted(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/update/accepted", thing, jobID)
}

func topicJobUpdateRejected(thing, jobID string) string {
	return fmt.Sprintf("$aws/things/%s/jobs/%s/update/rejected", thing, jobID)
}
