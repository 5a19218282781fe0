package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/GlebRadaev/profilebot/internal/config"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Args = []string{"cmd"}
	s.T().Setenv("ADMIN_ID", "777")
	s.T().Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func (s *ApplicationSuite) TestStart_InvalidConfig() {
	s.T().Setenv("STORE_BACKEND", "sqlite")

	err := s.app.Start(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "can't load config")
	s.False(s.app.ready)
}

func (s *ApplicationSuite) TestStart_MissingToken() {
	s.T().Setenv("BOT_TOKEN", "")
	s.T().Setenv("TELEGRAM_BOT_TOKEN", "")

	err := s.app.Start(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "bot token is not set")
}

func (s *ApplicationSuite) TestStart_PostgresUnreachable() {
	s.T().Setenv("BOT_TOKEN", "123:abc")
	s.T().Setenv("STORE_BACKEND", config.StorePostgres)
	s.T().Setenv("DATABASE_URI", "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1")

	err := s.app.Start(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "can't build pgx pool")
}

func (s *ApplicationSuite) TestOpenStore_Redis() {
	mr := miniredis.RunT(s.T())
	s.app.cfg = &config.Config{StoreBackend: config.StoreRedis, RedisAddr: mr.Addr()}

	store, err := s.app.openStore(context.Background())

	s.Require().NoError(err)
	s.NotNil(store)
	s.Nil(s.app.janitor)
	s.Len(s.app.closers, 1)
	s.app.shutdown()
}

func (s *ApplicationSuite) TestStartJanitor() {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	s.app.janitor = func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	}

	s.app.startJanitor(ctx)
	cancel()
	s.app.wg.Wait()

	<-stopped
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	go func() {
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestWait_RunsClosersInReverse() {
	ctx, cancel := context.WithCancel(context.Background())
	var order []int
	s.app.closers = []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}

	cancel()
	err := s.app.Wait(ctx, cancel)

	s.NoError(err)
	s.Equal([]int{2, 1}, order)
}
