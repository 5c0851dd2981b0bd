package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/smiles-algebra/internal/testutil"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

type report struct {
	Input  string `json:"input"`
	Status string `json:"status"`
}

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	log   *testutil.MockLogger
	cache Cache
	ctx   context.Context
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.log = testutil.NewMockLogger()
	s.cache = NewRedisCache(NewClientFrom(db, s.log), s.log, WithPrefix("t:"), WithTTL(time.Hour))
	s.ctx = context.Background()
}

func (s *CacheTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func encode(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}

func (s *CacheTestSuite) TestGet_Hit() {
	want := report{Input: "CCO", Status: "perfect"}
	s.mock.ExpectGet("t:CCO").SetVal(string(encode(want)))

	var got report
	s.Require().NoError(s.cache.Get(s.ctx, "CCO", &got))
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("t:CCO").RedisNil()

	var got report
	err := s.cache.Get(s.ctx, "CCO", &got)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_Failure() {
	s.mock.ExpectGet("t:CCO").SetErr(fmt.Errorf("connection reset"))

	var got report
	err := s.cache.Get(s.ctx, "CCO", &got)
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_Corrupt() {
	s.mock.ExpectGet("t:CCO").SetVal("{not json")

	var got report
	err := s.cache.Get(s.ctx, "CCO", &got)
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSetAndDelete() {
	v := report{Input: "C1CC1", Status: "perfect"}
	s.mock.ExpectSet("t:C1CC1", encode(v), time.Hour).SetVal("OK")
	s.mock.ExpectDel("t:a", "t:b").SetVal(2)

	s.NoError(s.cache.Set(s.ctx, "C1CC1", v))
	s.NoError(s.cache.Delete(s.ctx, "a", "b"))
	s.NoError(s.cache.Delete(s.ctx))
}

func (s *CacheTestSuite) TestGetOrLoad_Hit() {
	want := report{Input: "CCO", Status: "perfect"}
	s.mock.ExpectGet("t:CCO").SetVal(string(encode(want)))

	var got report
	hit, err := s.cache.GetOrLoad(s.ctx, "CCO", &got, func(context.Context) (interface{}, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGetOrLoad_MissLoadsAndStores() {
	want := report{Input: "CCO", Status: "perfect"}
	s.mock.ExpectGet("t:CCO").RedisNil()
	s.mock.ExpectSet("t:CCO", encode(want), time.Hour).SetVal("OK")

	calls := 0
	var got report
	hit, err := s.cache.GetOrLoad(s.ctx, "CCO", &got, func(context.Context) (interface{}, error) {
		calls++
		return want, nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal(1, calls)
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGetOrLoad_DegradesOnCacheFailure() {
	want := report{Input: "CCO", Status: "perfect"}
	s.mock.ExpectGet("t:CCO").SetErr(fmt.Errorf("timeout"))
	s.mock.ExpectSet("t:CCO", encode(want), time.Hour).SetErr(fmt.Errorf("timeout"))

	var got report
	hit, err := s.cache.GetOrLoad(s.ctx, "CCO", &got, func(context.Context) (interface{}, error) {
		return want, nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal(want, got)
	s.True(s.log.HasMessage("warn", "cache read failed, loading"))
	s.True(s.log.HasMessage("warn", "cache write failed"))
}

func (s *CacheTestSuite) TestGetOrLoad_LoaderError() {
	s.mock.ExpectGet("t:C1CC").RedisNil()

	var got report
	_, err := s.cache.GetOrLoad(s.ctx, "C1CC", &got, func(context.Context) (interface{}, error) {
		return nil, errors.New(errors.ErrCodeUnclosedRing, "ring 1 is never closed")
	})
	s.True(errors.IsCode(err, errors.ErrCodeUnclosedRing))
}

func (s *CacheTestSuite) TestGetOrLoad_CorruptHitIsDropped() {
	s.mock.ExpectGet("t:CCO").SetVal("[1,")
	s.mock.ExpectDel("t:CCO").SetVal(1)

	var got report
	_, err := s.cache.GetOrLoad(s.ctx, "CCO", &got, func(context.Context) (interface{}, error) {
		return report{}, nil
	})
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestPurge() {
	s.mock.ExpectScan(0, "t:*", 100).SetVal([]string{"t:a", "t:b"}, 0)
	s.mock.ExpectDel("t:a", "t:b").SetVal(2)

	n, err := s.cache.Purge(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
