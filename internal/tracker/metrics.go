package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var completionMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habits_completion_mutations_total",
		Help: "Completion log inserts and deletes applied by toggle, increment and decrement",
	},
	[]string{"op"},
)
