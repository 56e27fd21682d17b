// taskwatch is a thin terminal front end for the client stack: it signs in,
// prints the kanban board and streams live task events until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"taskclient/internal/auth"
	"taskclient/internal/config"
	"taskclient/internal/httpclient"
	"taskclient/internal/logger"
	"taskclient/internal/mockapi"
	"taskclient/internal/models"
	"taskclient/internal/notifier"
	"taskclient/internal/realtime"
	"taskclient/internal/services"
	"taskclient/internal/storage"
	"taskclient/internal/viewmodel"

	"go.uber.org/zap"
)

func main() {
	var (
		username = flag.String("username", "", "username for login/register")
		password = flag.String("password", "", "password for login/register")
		email    = flag.String("email", "", "email (register only)")
		register = flag.Bool("register", false, "register a new account instead of logging in")
		status   = flag.String("status", "", "filter board by status (TODO|IN_PROGRESS|DONE)")
		logout   = flag.Bool("logout", false, "clear the stored session and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Features.EnableDebug); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	if cfg.Features.MockAPI {
		baseURL, stop, err := startMockBackend()
		if err != nil {
			logger.Error("mock backend failed to start", err)
			os.Exit(1)
		}
		defer stop()
		cfg.API.BaseURL = baseURL
		logger.Info("using in-process mock backend", zap.String("base_url", baseURL))
	}

	kv := openStorage(cfg)
	prefs := storage.NewPreferences(kv, cfg.Theme.DefaultTheme)
	logger.Debug("theme preference", zap.String("mode", prefs.ThemeMode()))

	tokens := auth.NewTokenStore(kv, cfg.Auth.TokenKey)
	api := httpclient.New(cfg.API.BaseURL, cfg.API.Timeout, tokens)
	api.SetDebug(cfg.Features.EnableDebug)
	session := auth.NewManager(api, tokens, time.Duration(cfg.Auth.TokenExpiryHours)*time.Hour)
	api.SetRefresher(session)

	if *logout {
		session.Logout()
		fmt.Println("session cleared")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	user, err := signIn(ctx, session, *register, *username, *email, *password)
	if err != nil {
		logger.Error("sign-in failed", err)
		os.Exit(1)
	}
	fmt.Printf("signed in as %s (%s)\n", user.Username, user.Role)

	tasks := services.NewTaskService(api)
	board := viewmodel.NewBoard(tasks)

	filter := services.TaskFilter{Status: models.TaskStatus(*status)}
	if err := board.SetFilter(ctx, filter); err != nil {
		logger.Error("initial fetch failed", err)
		os.Exit(1)
	}
	printBoard(board)

	channel := realtime.New(cfg.WSBaseURL(), tokens, cfg.Realtime.ReconnectBase, cfg.Realtime.ReconnectMax)
	channel.Connect()
	defer channel.Disconnect()

	dueSoon := notifier.New(tasks, 5*time.Minute, 30, func(due []models.Task) {
		for _, t := range due {
			fmt.Printf("reminder: %q is due soon\n", t.Title)
		}
	})
	go dueSoon.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-channel.Events():
			switch ev.Kind {
			case realtime.KindTask:
				board.Apply(ev)
				fmt.Printf("event: task %d %s\n", ev.TaskID, ev.Action)
				printBoard(board)
			case realtime.KindNotification:
				fmt.Printf("notification: %s %s\n", ev.Notification.Type, ev.Notification.Title)
			}
		}
	}
}

func signIn(ctx context.Context, session *auth.Manager, register bool, username, email, password string) (*models.User, error) {
	if register {
		return session.Register(ctx, username, email, password)
	}
	if username != "" {
		return session.Login(ctx, username, password)
	}
	// No credentials given: try to restore the stored session.
	if err := session.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("no stored session (pass -username/-password): %w", err)
	}
	user := session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("no stored session (pass -username/-password)")
	}
	return user, nil
}

func openStorage(cfg *config.Config) storage.KV {
	path := cfg.Storage.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Warn("no home directory, state will not persist", zap.Error(err))
			return storage.NewMemStore()
		}
		path = filepath.Join(home, ".taskclient", "state.json")
	}
	return storage.NewFileStore(path)
}

func startMockBackend() (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: mockapi.New("taskwatch-mock-secret").Handler()}
	go srv.Serve(ln)
	stop := func() { srv.Close() }
	return "http://" + ln.Addr().String(), stop, nil
}

func printBoard(board *viewmodel.Board) {
	buckets := board.Buckets()
	for _, col := range []models.TaskStatus{models.StatusTodo, models.StatusInProgress, models.StatusDone} {
		fmt.Printf("== %s (%d)\n", col, len(buckets[col]))
		for _, t := range buckets[col] {
			due := ""
			if t.DueDate != nil {
				due = " due " + t.DueDate.Format("2006-01-02 15:04")
			}
			fmt.Printf("  #%d [%s] %s%s\n", t.ID, t.Priority, t.Title, due)
		}
	}
}
