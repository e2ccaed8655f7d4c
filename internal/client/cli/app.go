package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/client/config"
	"github.com/dmitrijs2005/spendkeeper/internal/client/services"
	"github.com/dmitrijs2005/spendkeeper/internal/filex"
)

const sessionDBName = "session.db"

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config         *config.Config
	authService    services.AuthService
	expenseService services.ExpenseService
	userName       string
	loggedIn       bool
	Mode           Mode
	reader         *bufio.Reader
	out            io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, sessionDBName))
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewSpendKeeperClientService(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db)
	es := services.NewExpenseService(apiClient, &http.Client{Timeout: time.Minute})

	return &App{
		config:         c,
		authService:    as,
		expenseService: es,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s += string(a.Mode)
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// restore signs the user in from the saved session, if any.
func (a *App) restore(ctx context.Context) {
	email, ok, err := a.authService.Restore(ctx)
	if err != nil {
		log.Printf("could not restore session: %v", err)
		return
	}
	if ok {
		a.userName = email
		a.loggedIn = true
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes server health every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run starts the REPL, or executes args as a single command when given.
func (a *App) Run(ctx context.Context, args []string) {
	defer a.authService.Close(ctx)

	a.restore(ctx)

	if len(args) > 0 {
		dispatch(ctx, a, args, a.out)
		return
	}

	a.checkOnline(ctx)
	if a.config.OnlineCheckInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	log.Println("Welcome to spendkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader), a.out)
}
