package api

import (
	"bitbucket.org/insurance/payments/server"
)

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler},
		{Path: "/health", Methods: []string{"GET"}, Handler: HealthHandler},
		{Path: "/ping", Methods: []string{"GET"}, Handler: PingHandler},

		// Payment
		{Path: "/payments", Methods: []string{"POST"}, Handler: InsertPayment},
		{Path: "/payments", Methods: []string{"GET", "HEAD"}, Handler: GetPayments},
		{Path: "/payments/_counts", Methods: []string{"POST"}, Handler: CountPayments},
	}
}
