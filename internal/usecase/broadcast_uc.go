package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"telegram-giveaway-bot/internal/domain/ports/adapter"
	"telegram-giveaway-bot/internal/domain/ports/repository"
	"telegram-giveaway-bot/internal/infra/metrics"
	"telegram-giveaway-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// BroadcastSource identifies the admin-authored message to fan out.
type BroadcastSource struct {
	ChatID    int64
	MessageID int
}

// BroadcastTally is the final sent/failed count of one fan-out run.
type BroadcastTally struct {
	Sent   int
	Failed int
}

type BroadcastUseCase interface {
	// Broadcast copies the source message to every known user, best-effort.
	// A failed delivery never aborts the remaining ones; the call returns
	// once every delivery has been attempted.
	Broadcast(ctx context.Context, src BroadcastSource) (BroadcastTally, error)
}

type broadcastUC struct {
	users      repository.UserRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) BroadcastUseCase {
	return &broadcastUC{
		users:      users,
		bot:        bot,
		workerPool: pool,
		log:        logger,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, src BroadcastSource) (BroadcastTally, error) {
	ids, err := uc.users.ListIDs(ctx, repository.NoTX)
	if err != nil {
		uc.log.Error().Err(err).Msg("failed to snapshot user ids for broadcast")
		return BroadcastTally{}, err
	}

	uc.log.Info().Int("recipients", len(ids)).Msg("starting broadcast fan-out")

	// Throttle to respect Telegram's API limits (approx. 30 messages/sec).
	throttle := time.NewTicker(time.Second / 25)
	defer throttle.Stop()

	var sent, failed int64
	var wg sync.WaitGroup
	for i, id := range ids {
		select {
		case <-throttle.C:
		case <-ctx.Done():
			wg.Wait()
			// Recipients we never reached count as failures so the tally
			// still covers the whole snapshot.
			s := int(atomic.LoadInt64(&sent))
			f := int(atomic.LoadInt64(&failed)) + (len(ids) - i)
			return BroadcastTally{Sent: s, Failed: f}, ctx.Err()
		}

		wg.Add(1)
		task := uc.copyTask(src, id, &sent, &failed, &wg)
		if err := uc.workerPool.Submit(task); err != nil {
			// Queue saturated; deliver inline rather than dropping the recipient.
			_ = task(ctx)
		}
	}
	wg.Wait()

	tally := BroadcastTally{Sent: int(atomic.LoadInt64(&sent)), Failed: int(atomic.LoadInt64(&failed))}
	uc.log.Info().Int("sent", tally.Sent).Int("failed", tally.Failed).Msg("broadcast fan-out finished")
	return tally, nil
}

// copyTask creates a closure for the worker pool to execute.
func (uc *broadcastUC) copyTask(src BroadcastSource, tgID int64, sent, failed *int64, wg *sync.WaitGroup) worker.Task {
	return func(ctx context.Context) error {
		defer wg.Done()
		if err := uc.bot.CopyMessage(ctx, tgID, src.ChatID, src.MessageID); err != nil {
			// Blocked bot, deactivated account, rate limit: counted, not surfaced.
			uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("broadcast delivery failed")
			atomic.AddInt64(failed, 1)
			metrics.IncBroadcastDelivery(false)
			return nil
		}
		atomic.AddInt64(sent, 1)
		metrics.IncBroadcastDelivery(true)
		return nil
	}
}
