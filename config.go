package sqlhandle

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DefaultDriver is used when Config.Driver is left empty.
const DefaultDriver = "mysql"

// Config describes a connection for Connect. Every field is optional;
// empty fields fall back to the driver's defaults.
type Config struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Port     int    `yaml:"port"`
}

func (c Config) driver() string {
	if c.Driver == "" {
		return DefaultDriver
	}
	return c.Driver
}

func (c Config) hostport() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	if c.Port == 0 {
		return host
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// DSN renders the driver-specific connection string.
func (c Config) DSN() (string, error) {
	switch c.driver() {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.DBName = c.Database
		if c.Host != "" || c.Port != 0 {
			mc.Net = "tcp"
			mc.Addr = c.hostport()
		}
		return mc.FormatDSN(), nil
	case "sqlserver":
		u := url.URL{Scheme: "sqlserver", Host: c.hostport()}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		if c.Database != "" {
			q := url.Values{}
			q.Set("database", c.Database)
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	case "pgx":
		var kv []string
		add := func(key, value string) {
			if value != "" {
				kv = append(kv, key+"="+value)
			}
		}
		add("host", c.Host)
		if c.Port != 0 {
			add("port", fmt.Sprintf("%d", c.Port))
		}
		add("user", c.User)
		add("password", c.Password)
		add("dbname", c.Database)
		return strings.Join(kv, " "), nil
	case "sqlite3":
		if c.Database == "" {
			return ":memory:", nil
		}
		return c.Database, nil
	default:
		return "", newError(KindConnection, "",
			fmt.Sprintf("unsupported driver %q", c.Driver), nil)
	}
}
