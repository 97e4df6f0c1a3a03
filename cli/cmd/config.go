package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
	"gopkg.in/yaml.v3"

	"github.com/nordsql/sqlhandle"
)

type Config struct {
	Databases map[string]sqlhandle.Config `yaml:"databases"`
}

func LoadConfig() (Config, error) {
	var result Config

	configFilename := path.Join(directory, "sqlsh.yaml")
	if _, err := os.Stat(configFilename); os.IsNotExist(err) {
		return Config{}, errors.New("No sqlsh.yaml found in " + directory)
	}

	yamlFile, err := os.ReadFile(configFilename)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(yamlFile, &result)
	if err != nil {
		return Config{}, err
	}
	return result, nil
}

// openTarget connects to the database selected with --database. When
// SQL_SOCKS is set and the target is sqlserver, the connection is
// dialed through the SOCKS5 proxy.
func openTarget(ctx context.Context, logger logrus.FieldLogger) (*sqlhandle.Handle, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if database == "" {
		return nil, errors.New("no --database given")
	}
	dbconfig, ok := config.Databases[database]
	if !ok {
		return nil, errors.New(fmt.Sprintf("database %s not present in configuration file", database))
	}

	socksProxyAddress := os.Getenv("SQL_SOCKS")
	if socksProxyAddress != "" && dbconfig.Driver == "sqlserver" {
		return openSocksSQLServer(dbconfig, socksProxyAddress, logger)
	}

	return sqlhandle.Connect(ctx, dbconfig, sqlhandle.WithLogger(logger))
}

func openSocksSQLServer(dbconfig sqlhandle.Config, socksProxyAddress string, logger logrus.FieldLogger) (*sqlhandle.Handle, error) {
	dsn, err := dbconfig.DSN()
	if err != nil {
		return nil, err
	}
	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, err
	}
	dialer, err := proxy.SOCKS5("tcp", socksProxyAddress, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Could not connect with SOCKS5 to %s", socksProxyAddress))
	}
	connector.Dialer = dialer.(proxy.ContextDialer)
	return sqlhandle.Adopt(sql.OpenDB(connector), "sqlserver", sqlhandle.WithLogger(logger)), nil
}
