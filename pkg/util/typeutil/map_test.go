package typeutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MapUtilSuite struct {
	suite.Suite
}

func (suite *MapUtilSuite) TestConcurrentMap() {
	currMap := NewConcurrentMap[int64, string]()

	v, ok := currMap.Get(100)
	suite.False(ok)
	suite.Empty(v)
	suite.Equal(0, currMap.Len())

	currMap.Insert(100, "v1")
	v, ok = currMap.Get(100)
	suite.True(ok)
	suite.Equal("v1", v)
	suite.Equal(1, currMap.Len())

	currMap.Insert(100, "v2")
	suite.Equal(1, currMap.Len())

	v, loaded := currMap.GetOrInsert(100, "v3")
	suite.True(loaded)
	suite.Equal("v2", v)

	v, loaded = currMap.GetOrInsert(200, "v4")
	suite.False(loaded)
	suite.Equal("v4", v)
	suite.Equal(2, currMap.Len())
	suite.ElementsMatch([]int64{100, 200}, currMap.Keys())

	v, ok = currMap.GetAndRemove(100)
	suite.True(ok)
	suite.Equal("v2", v)
	suite.Equal(1, currMap.Len())
	suite.False(currMap.Contain(100))

	currMap.Remove(200)
	suite.Equal(0, currMap.Len())
}

func (suite *MapUtilSuite) TestConcurrentMapParallel() {
	currMap := NewConcurrentMap[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				currMap.GetOrInsert(j, j)
			}
		}()
	}
	wg.Wait()

	suite.Equal(100, currMap.Len())
	count := 0
	currMap.Range(func(key, value int) bool {
		suite.Equal(key, value)
		count++
		return true
	})
	suite.Equal(100, count)
}

func TestMapUtil(t *testing.T) {
	suite.Run(t, new(MapUtilSuite))
}
