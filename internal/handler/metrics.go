package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_logins_total",
			Help: "Total number of login attempts by status.",
		},
		[]string{"status"},
	)

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_token_verifications_total",
			Help: "Total number of token verification attempts by type and status.",
		},
		[]string{"type", "status"},
	)

	postsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_posts_created_total",
		Help: "Total number of published posts.",
	})

	commentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_comments_created_total",
		Help: "Total number of published comments.",
	})

	mailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_mails_total",
			Help: "Outgoing mails handed to the mailer by kind and status.",
		},
		[]string{"kind", "status"},
	)
)
