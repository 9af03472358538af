package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-registration-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "secret", Name: "registrations", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=registrations sslmode=disable", dsn)
}
