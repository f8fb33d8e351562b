package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// uploadsTotal 按终态统计上传任务数
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_uploads_total",
			Help: "Total number of photo upload tasks by outcome",
		},
		[]string{"outcome"},
	)

	// uploadedBytesTotal 统计成功上传的总字节数
	uploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_uploaded_bytes_total",
		Help: "Total bytes of successfully uploaded photos",
	})

	// deletesTotal 按结果统计删除操作数
	deletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_deletes_total",
			Help: "Total number of photo delete operations by outcome",
		},
		[]string{"outcome"},
	)
)
