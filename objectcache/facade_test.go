package objectcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrayfile/arrayfile/objectcache"
)

type fakeStore struct {
	values      map[int64]string
	deleted     []int64
	persisted   int
	idStart     int64
	idCount     int64
}

func (s *fakeStore) Get(id int64) (string, bool, error) {
	v, ok := s.values[id]
	return v, ok, nil
}

func (s *fakeStore) Set(id int64, value string) error {
	s.values[id] = value
	return nil
}

func (s *fakeStore) Delete(id int64) error {
	s.deleted = append(s.deleted, id)
	delete(s.values, id)
	return nil
}

func (s *fakeStore) Persist() error {
	s.persisted++
	return nil
}

func (s *fakeStore) GetObjectIDStart() int64 { return s.idStart }
func (s *fakeStore) GetObjectIDCount() int64 { return s.idCount }

func Test_Facade_Applies_Inbound_Transform_Before_Set(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[int64]string{}}
	f := objectcache.New[string](store, func(v string) string { return v + "-in" }, nil)

	require.NoError(t, f.Set(1, "x"))
	require.Equal(t, "x-in", store.values[1])
}

func Test_Facade_Applies_Outbound_Transform_After_Get(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[int64]string{1: "x"}}
	f := objectcache.New[string](store, nil, func(v string) string { return v + "-out" })

	v, ok, err := f.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x-out", v)
}

func Test_Facade_Is_Passthrough_Without_Transforms(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[int64]string{1: "x"}, idStart: 10, idCount: 5}
	f := objectcache.New[string](store, nil, nil)

	v, ok, err := f.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", v)

	require.NoError(t, f.Set(2, "y"))
	require.Equal(t, "y", store.values[2])

	require.NoError(t, f.Delete(1))
	require.Contains(t, store.deleted, int64(1))

	require.NoError(t, f.Persist())
	require.Equal(t, 1, store.persisted)

	require.EqualValues(t, 10, f.GetObjectIDStart())
	require.EqualValues(t, 5, f.GetObjectIDCount())
}
