package metrics

import (
	_ "github.com/golang/mock/mockgen/model"
)

//go:generate mockgen -package metricsmock -destination metricsmock/sink.go -imports github.com/inspector-go/metrics github.com/inspector-go/metrics Sink
