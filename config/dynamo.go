package config

import (
	"fmt"
	"os"
	"strconv"
)

type DynamoConfig struct {
	TableName string
	// TtlDays bounds how long finished job records stay queryable.
	TtlDays int
}

func GetDynamoConfig() (*DynamoConfig, error) {
	tableName := os.Getenv("DYNAMO_TABLE_NAME")
	if tableName == "" {
		return nil, fmt.Errorf("DYNAMO_TABLE_NAME must be set")
	}

	ttlDays := 30
	if v, err := strconv.Atoi(os.Getenv("DYNAMO_TTL_DAYS")); err == nil && v > 0 {
		ttlDays = v
	}

	return &DynamoConfig{
		TableName: tableName,
		TtlDays:   ttlDays,
	}, nil
}
