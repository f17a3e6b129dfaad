package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminRequestTotal, workerTasksTotal) }

var (
	adminRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_request_total",
			Help: "Tracks admin API calls.",
		},
		[]string{"route", "status"}, // status: HTTP code
	)

	workerTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_tasks_total",
			Help: "Worker pool tasks by result, e.g. broadcast deliveries.",
		},
		[]string{"pool", "result"}, // result: 'ok', 'failed', 'dropped'
	)
)

func IncAdminRequest(route, status string) {
	adminRequestTotal.WithLabelValues(norm(route), norm(status)).Inc()
}

func IncWorkerTask(pool, result string) {
	workerTasksTotal.WithLabelValues(norm(pool), norm(result)).Inc()
}
