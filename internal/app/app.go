package app

import (
	"log/slog"

	"github.com/suthee/kinarai/core/internal/config"
	http_init "github.com/suthee/kinarai/core/internal/delivery/http/init"
	http_access_middleware "github.com/suthee/kinarai/core/internal/delivery/http/middleware/access"
	http_room "github.com/suthee/kinarai/core/internal/delivery/http/room"
	http_selection "github.com/suthee/kinarai/core/internal/delivery/http/selection"
	ws_room "github.com/suthee/kinarai/core/internal/delivery/ws/room"
	"github.com/suthee/kinarai/core/internal/eventbus"
	infra_memory_room "github.com/suthee/kinarai/core/internal/infra/memory/room"
	infra_memory_spinlock "github.com/suthee/kinarai/core/internal/infra/memory/spinlock"
	infra_pg_init "github.com/suthee/kinarai/core/internal/infra/postgres/init"
	infra_postgres_room "github.com/suthee/kinarai/core/internal/infra/postgres/room"
	infra_redis_init "github.com/suthee/kinarai/core/internal/infra/redis/init"
	infra_redis_spinlock "github.com/suthee/kinarai/core/internal/infra/redis/spinlock"
	"github.com/suthee/kinarai/core/internal/model"
	usecase_gate "github.com/suthee/kinarai/core/internal/usecase/gate"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
	usecase_selection "github.com/suthee/kinarai/core/internal/usecase/selection"
)

func Go(cfg *config.Config) {
	bus := eventbus.New(slog.Default())

	var roomRepository usecase_room.RoomRepository
	var locker usecase_selection.Locker
	if cfg.Store == "postgres" {
		pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		roomRepository = infra_postgres_room.New(pgConn)
		locker = infra_redis_spinlock.New(redisConn, "spin_lock")
	} else {
		roomRepository = infra_memory_room.New()
		locker = infra_memory_spinlock.New()
	}

	gate := usecase_gate.New(cfg.Game.RequireAllReady)
	roomUC := usecase_room.New(roomRepository, gate, model.Settings{
		ResultCount:     cfg.Game.ResultCount,
		SpinDuration:    cfg.Game.SpinDuration,
		RequireAllReady: cfg.Game.RequireAllReady,
	})
	engine := usecase_selection.New(locker, bus, slog.Default())

	hub := ws_room.NewHub(roomUC, bus)
	go hub.Run()

	controllerPool := http_init.NewControllerPool()
	controllerPool.Use(http_access_middleware.BrowserAccessMiddleware())
	controllerPool.Add(http_room.New(roomUC, bus))
	controllerPool.Add(http_selection.New(roomUC, engine))
	controllerPool.Add(ws_room.NewController(hub))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
