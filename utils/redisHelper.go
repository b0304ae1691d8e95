package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis list caches (configuration registries) */

func redisListKey[T any](organizationId string) string {
	return GetTypeName[T]() + ":List:" + organizationId
}

// store list of models for an organization
func StoreRedisList[T any](obj any, organizationId string) error {
	return config.SetRedisObject(redisListKey[T](organizationId), &obj, GetCacheLifespan())
}

// retrieve cached list; nil result means cache miss
func RetrieveRedisList[T any](organizationId string) ([]*T, error) {
	var results []*T
	exists, err := config.GetRedisObject(redisListKey[T](organizationId), &results)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return results, nil
}

// drop cached list after a write
func ClearRedisList[T any](organizationId string) error {
	return config.RemoveRedisKey(redisListKey[T](organizationId))
}
