package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/cli/output"
	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/infra/confloader"
	"github.com/yndnr/vftledger-go/internal/server/config"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
)

const envKey = "vftledger.env"

// ErrNotInitialized is returned when the data directory holds no ledger.
var ErrNotInitialized = errors.New("no ledger in data directory (run init first)")

// env is the per-invocation runtime shared by all commands.
type env struct {
	cfg       *config.Config
	log       logger.Logger
	formatter output.Formatter
	out       io.Writer
	call      service.Call
}

// setup loads the configuration and prepares the runtime.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithFlags(map[string]any{
			"storage.data_dir": c.String("data-dir"),
			"log.level":        c.String("log-level"),
		}),
	)
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	call := service.Call{}
	if s := c.String("caller"); s != "" {
		if call.Caller, err = parseAccount(s); err != nil {
			return fmt.Errorf("--caller: %w", err)
		}
	}
	block := c.Uint("block")
	if uint64(block) > math.MaxUint32 {
		return fmt.Errorf("--block: %d exceeds the block clock", block)
	}
	call.Block = domain.BlockNumber(block)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[envKey] = &env{
		cfg:       cfg,
		log:       log,
		formatter: output.NewFormatter(format, c.Bool("wide")),
		out:       c.App.Writer,
		call:      call,
	}
	return nil
}

func getEnv(c *cli.Context) *env {
	e, _ := c.App.Metadata[envKey].(*env)
	return e
}

// commandContext tags a context with a request ID and the command name.
func (e *env) commandContext(c *cli.Context, op string) context.Context {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithRequestID(ctx, ulid.Make().String())
	ctx = logger.WithOperation(ctx, op)
	return logger.WithLogger(ctx, e.log)
}

func (e *env) print(data any) error {
	return e.formatter.Format(e.out, data)
}

func (e *env) openEngine(metrics *metric.Registry) (*storage.Engine, error) {
	return storage.New(e.cfg.StorageEngine(e.log, metrics))
}

// ledgerSession couples a recovered service with its storage.
type ledgerSession struct {
	engine *storage.Engine
	svc    *service.Service
}

// serviceOptions builds the options every command shares.
func (e *env) serviceOptions(extra ...service.Option) ([]service.Option, error) {
	auth, err := e.cfg.Authorizer()
	if err != nil {
		return nil, err
	}
	opts := []service.Option{
		service.WithAuthorizer(auth),
		service.WithLogger(e.log),
		service.WithEmitter(service.LogEmitter{Logger: e.log}),
	}
	return append(opts, extra...), nil
}

// open recovers the saved ledger.
func (e *env) open(ctx context.Context, metrics *metric.Registry, extra ...service.Option) (*ledgerSession, error) {
	engine, err := e.openEngine(metrics)
	if err != nil {
		return nil, err
	}
	state, err := engine.Recover(ctx)
	if err != nil {
		engine.Close()
		if errors.Is(err, storage.ErrNoState) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	opts, err := e.serviceOptions(extra...)
	if err != nil {
		engine.Close()
		return nil, err
	}
	svc, err := service.FromState(state, opts...)
	if err != nil {
		engine.Close()
		return nil, err
	}
	return &ledgerSession{engine: engine, svc: svc}, nil
}

// save writes a checkpoint of the live ledger.
func (s *ledgerSession) save(ctx context.Context) (storage.SaveInfo, error) {
	state, err := s.svc.State(ctx)
	if err != nil {
		return storage.SaveInfo{}, err
	}
	return s.engine.Checkpoint(ctx, state)
}

func (s *ledgerSession) Close() error {
	return s.engine.Close()
}

// withLedger runs fn against the saved ledger and checkpoints it when
// mutate is set and fn succeeds.
func withLedger(c *cli.Context, op string, mutate bool, fn func(ctx context.Context, e *env, svc *service.Service) (any, error)) error {
	e := getEnv(c)
	ctx := e.commandContext(c, op)

	session, err := e.open(ctx, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	result, err := fn(ctx, e, session.svc)
	if err != nil {
		return err
	}
	if mutate {
		info, err := session.save(ctx)
		if err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		logger.L(ctx).Debug("ledger saved", "fingerprint", info.Fingerprint)
		if r, ok := result.(*opResult); ok {
			r.Fingerprint = info.Fingerprint
		}
	}
	if result == nil {
		return nil
	}
	return e.print(result)
}

// opResult reports the outcome of a mutating command.
type opResult struct {
	Operation   string `json:"operation" yaml:"operation" table:"operation"`
	Changed     bool   `json:"changed" yaml:"changed" table:"changed"`
	Amount      string `json:"amount,omitempty" yaml:"amount,omitempty" table:"amount"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint" table:"fingerprint,wide"`
}

// parseAccount accepts base58, 0x-hex, or @name.
func parseAccount(s string) (domain.AccountID, error) {
	if name, ok := strings.CutPrefix(s, "@"); ok {
		if name == "" {
			return domain.AccountID{}, domain.ErrInvalidAccount.WithDetails("empty name")
		}
		return domain.DeriveAccountID(name), nil
	}
	return domain.ParseAccountID(s)
}

// parseAmount accepts a decimal integer or "max" for the largest value.
func parseAmount(s string) (*uint256.Int, error) {
	if strings.EqualFold(s, "max") {
		return new(uint256.Int).SetAllOne(), nil
	}
	return domain.ParseAmount(strings.ReplaceAll(s, "_", ""))
}

// args checks the positional argument count.
func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, fmt.Errorf("%s expects %d argument(s): %s", c.Command.Name, len(names), strings.Join(names, " "))
	}
	return c.Args().Slice(), nil
}

func accountArgs(c *cli.Context, names ...string) ([]domain.AccountID, error) {
	values, err := args(c, names...)
	if err != nil {
		return nil, err
	}
	return parseAccounts(values, names...)
}

func parseAccounts(values []string, names ...string) ([]domain.AccountID, error) {
	var err error
	ids := make([]domain.AccountID, len(values))
	for i, v := range values {
		if ids[i], err = parseAccount(v); err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
	}
	return ids, nil
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
