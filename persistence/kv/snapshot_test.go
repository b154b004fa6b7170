package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/user"
)

type snapshotRepositoryTestSuite struct {
	suite.Suite
	snapshots user.SnapshotRepository
}

func (suite *snapshotRepositoryTestSuite) SetupSuite() {
	cfg := conf.Persistence{
		Driver: conf.BadgerDB,
		Name:   "userdash",
		InMem:  true,
	}

	snapshots, err := NewSnapshotRepository(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.snapshots = snapshots
}

func (suite *snapshotRepositoryTestSuite) SetupTest() {
	suite.snapshots.(*snapshotRepository).Truncate()
}

func (suite *snapshotRepositoryTestSuite) TestLoadMissing() {
	_, err := suite.snapshots.Load(context.Background(), "root")
	suite.ErrorIs(err, user.ErrSnapshotNotFound)
}

func (suite *snapshotRepositoryTestSuite) TestSaveAndLoad() {
	ctx := context.Background()

	err := suite.snapshots.Save(ctx, "root", []byte(`{"version":1}`))
	suite.NoError(err)

	data, err := suite.snapshots.Load(ctx, "root")
	suite.NoError(err)
	suite.Equal(`{"version":1}`, string(data))

	// overwrite
	err = suite.snapshots.Save(ctx, "root", []byte(`{"version":2}`))
	suite.NoError(err)

	data, err = suite.snapshots.Load(ctx, "root")
	suite.NoError(err)
	suite.Equal(`{"version":2}`, string(data))
}

func (suite *snapshotRepositoryTestSuite) TestDelete() {
	ctx := context.Background()

	suite.NoError(suite.snapshots.Save(ctx, "root", []byte("state")))
	suite.NoError(suite.snapshots.Save(ctx, "other", []byte("other")))

	suite.NoError(suite.snapshots.Delete(ctx, "root"))

	_, err := suite.snapshots.Load(ctx, "root")
	suite.ErrorIs(err, user.ErrSnapshotNotFound)

	data, err := suite.snapshots.Load(ctx, "other")
	suite.NoError(err)
	suite.Equal("other", string(data))

	// deleting twice is fine
	suite.NoError(suite.snapshots.Delete(ctx, "root"))
}

func (suite *snapshotRepositoryTestSuite) TearDownSuite() {
	suite.snapshots.Close()
}

func TestSnapshotRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(snapshotRepositoryTestSuite))
}
