package urlcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// signCallsTotal 统计实际发出的签名调用次数
	signCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signed_url_sign_calls_total",
		Help: "Total number of signing calls issued to the object store",
	})

	// cacheHitsTotal 统计展示缓存命中次数
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signed_url_cache_hits_total",
		Help: "Total number of display URL cache hits",
	})
)
