package main

import (
	"context"
	"os"
	"time"

	"bitbucket.org/insurance/payments/api"
	"bitbucket.org/insurance/payments/server"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	_ = godotenv.Load("dev.env")

	app := cli.NewApp()
	app.Name = "Payments Service"
	app.Usage = "Records payments made against insurance policies"
	app.Version = "1.00"
	app.Compiled = time.Now()
	app.Commands = []cli.Command{
		{
			Name:  "payments-up",
			Usage: "This command starts the payments service",
			Action: func(c *cli.Context) error {
				StartServer(api.GetRoutes())
				return nil
			},
		},
		{
			Name:  "migrate",
			Usage: "This command creates the payment table",
			Action: func(c *cli.Context) error {
				ctx := server.GetAppContext()
				ctx.CreateSQLConnection()
				defer ctx.Context.SQLConn.Close()

				return ctx.MigrateSchema(context.Background())
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func StartServer(routes []*server.Route) {
	ctx := server.GetAppContext()
	ctx.CreateSQLConnection()
	ctx.CreatePolicyIntegration()
	ctx.CreatePaymentService()

	server.UpServer(routes, ctx)
}
