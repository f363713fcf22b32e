package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth_session"

// причины записи в blacklist
const (
	CauseLogout        = "logout"
	CauseAnomaly       = "anomaly"
	CausePrincipalGone = "principal_gone"
)

// Recorder : счетчики выдачи, отказов и отзыва токенов
type Recorder struct {
	Issued      *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Revocations *prometheus.CounterVec
}

// New регистрирует счетчики в reg. При nil счетчики не регистрируются
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issued_total",
			Help:      "Выданные токены по типу",
		}, []string{"kind"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Отклоненные токены по внутренней причине",
		}, []string{"reason"}),
		Revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocations_total",
			Help:      "Записи в blacklist по причине",
		}, []string{"cause"}),
	}

	if reg != nil {
		reg.MustRegister(r.Issued, r.Rejections, r.Revocations)
	}
	return r
}

// методы допускают nil Recorder
func (r *Recorder) IssuedCredential(kind string) {
	if r == nil {
		return
	}
	r.Issued.WithLabelValues(kind).Inc()
}

func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.Rejections.WithLabelValues(reason).Inc()
}

func (r *Recorder) Revoked(cause string) {
	if r == nil {
		return
	}
	r.Revocations.WithLabelValues(cause).Inc()
}
