package queuemanager

import (
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

type JobStatus string

const (
	Success     JobStatus = "success"
	Failure               = "failure"
	TempFailure           = "temporary_failure"
)

// IQWorker processes one queued job at a time
type IQWorker interface {
	Process(jobMsg []byte) QueueJobResult
}

type QueueListenerParams struct {
	QueueName  string `json:"queue_name"`
	AutoAck    bool   `json:"auto_ack"`
	Exclusive  bool   `json:"exclusive"`
	NoLocal    bool   `json:"no_local"`
	NoWait     bool   `json:"no_wait"`
	NumWorkers int    `json:"num_workers"`
}

type QueueJobResult struct {
	Status   JobStatus
	Delay    int64
	Priority uint8
}

// InitQueueListener consumes the queue and hands jobs to the worker.
// Temporary failures are republished through the delayed exchange.
func InitQueueListener(params QueueListenerParams, worker IQWorker) error {
	msgs, err := ch.Consume(
		params.QueueName,
		"",
		params.AutoAck,
		params.Exclusive,
		params.NoLocal,
		params.NoWait,
		nil,
	)
	if err != nil {
		ymlogger.LogErrorf("QueueListener", "Failed to register the consumer. Error: [%#v]", err)
		return err
	}
	numWorkers := params.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go func() {
			for d := range msgs {
				result := worker.Process(d.Body)
				switch result.Status {
				case TempFailure:
					requeueParams := QueueMessageParams{
						Exchange:  "delayed",
						QueueName: params.QueueName,
						Msg:       string(d.Body),
						Delay:     result.Delay,
						Priority:  result.Priority,
					}
					if err := requeueParams.Enqueue(); err != nil {
						ymlogger.LogErrorf("QueueListener", "Failed to requeue the job. Error: [%#v]", err)
					}
				case Failure:
					ymlogger.LogErrorf("QueueListener", "Job failed permanently. Msg: [%s]", string(d.Body))
				}
				if !params.AutoAck {
					if err := d.Ack(false); err != nil {
						ymlogger.LogErrorf("QueueListener", "Failed to ack the job. Error: [%#v]", err)
					}
				}
			}
		}()
	}
	ymlogger.LogInfof("QueueListener", "Started [%d] workers on queue [%s]", numWorkers, params.QueueName)
	return nil
}
