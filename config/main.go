package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	db "bitbucket.org/insurance/payments/db"
	"bitbucket.org/insurance/payments/policies"
	"bitbucket.org/insurance/payments/service"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joeshaw/envdecode"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Configuration struct {
	Port          int    `env:"PORT,default=3001"`
	Timeout       int    `env:"TIMEOUT,default=10"`
	SQL           database
	PolicyService policyService
	Environment   string `env:"ENVIRONMENT,default=development"`
	AppName       string `env:"APP_NAME,default=payments"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

type database struct {
	Driver         string `env:"DATA_BASE_DRIVER,default=mysql"`
	URL            string `env:"DATA_BASE_URL,required"`
	Name           string `env:"DATA_BASE_NAME,required"`
	User           string `env:"DATA_BASE_USER,required"`
	Port           int    `env:"DATA_BASE_PORT"`
	Password       string `env:"DATA_BASE_PASSWORD,required"`
	OpenConnection int    `env:"DATA_BASE_MAX_OPEN_CONNECTION,default=5"`
	SSLMode        string `env:"DATA_BASE_SSL_MODE,default=disable"`
}

type policyService struct {
	URL     string        `env:"POLICY_SERVICE_URL,required"`
	Timeout time.Duration `env:"POLICY_SERVICE_TIMEOUT,default=5s"`
}

type AppContext struct {
	Config   Configuration
	SQLConn  *sqlx.DB
	DB       db.Storage
	Policies *policies.Client
	Payments *service.PaymentService
}

// Load decodes the configuration from the environment.
func Load() (Configuration, error) {
	var conf Configuration
	if err := envdecode.Decode(&conf); err != nil {
		return conf, errors.Wrap(err, "could not load the app configuration")
	}
	return conf, nil
}

// DSN builds the connection string for the configured driver.
func DSN(conf database) (string, error) {
	switch strings.ToLower(conf.Driver) {
	case DriverMySQL:
		port := conf.Port
		if port == 0 {
			port = 3306
		}
		mysqlConf := mysql.NewConfig()
		mysqlConf.User = conf.User
		mysqlConf.Passwd = conf.Password
		mysqlConf.Net = "tcp"
		mysqlConf.Addr = net.JoinHostPort(conf.URL, strconv.Itoa(port))
		mysqlConf.DBName = conf.Name
		mysqlConf.ParseTime = true
		mysqlConf.Loc = time.UTC
		return mysqlConf.FormatDSN(), nil
	case DriverPostgres:
		port := conf.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s",
			conf.URL, port, conf.User, strings.ReplaceAll(conf.Password, "'", `\'`), conf.Name, conf.SSLMode), nil
	}

	return "", errors.Errorf("unsupported database driver %q", conf.Driver)
}

func CreateConnectionSQL(conf database) (*sqlx.DB, error) {
	dsn, err := DSN(conf)
	if err != nil {
		return nil, err
	}

	connection, err := sqlx.Connect(strings.ToLower(conf.Driver), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to connect", conf.Driver)
	}
	connection.SetMaxOpenConns(conf.OpenConnection)

	return connection, nil
}

func CreatePolicyClient(conf policyService) (*policies.Client, error) {
	if conf.URL == "" {
		return nil, errors.New("policy service url is required")
	}
	return policies.New(conf.URL, conf.Timeout), nil
}
