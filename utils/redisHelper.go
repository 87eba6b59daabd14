package utils

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/transafrica/fleetops_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	return 24 * time.Hour
}

func GetTypeName[T any]() string {
	var v T
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// cache a single record under "<Type>:<id>"
func StoreRedis[T any](obj any, id int) error {
	key := fmt.Sprintf("%s:%d", GetTypeName[T](), id)
	return config.SetRedisObject(key, obj, GetCacheLifespan())
}

func RetrieveRedis[T any](id int) (*T, error) {
	key := fmt.Sprintf("%s:%d", GetTypeName[T](), id)
	var result T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

func RemoveRedisItem[T any](id int) error {
	key := fmt.Sprintf("%s:%d", GetTypeName[T](), id)
	return config.RemoveRedisKey(key)
}

// GetSequence allocates the next per-org document number for model T.
// The counter lives in redis; when redis was cold we reseed it from the
// max sequence_no already persisted so numbers never go backwards.
func GetSequence[T any](ctx context.Context, orgId string) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := orgId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo == 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("org_id = ?", orgId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			if dbSeq == nil || *dbSeq < 1 {
				return seqNo, nil
			}
			// reseed redis past the persisted max and retry
			if err := config.SetRedisValue(cacheKey, fmt.Sprint(*dbSeq), 0); err != nil {
				return 0, err
			}
			continue
		}
		return seqNo, nil
	}
}
