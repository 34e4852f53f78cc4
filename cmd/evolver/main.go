package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/worker"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	redisCtx, redisCancel := context.WithTimeout(context.Background(), cfg.Redis.ConnectTimeout)
	defer redisCancel()
	if err := rdb.Ping(redisCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	jobs := repository.NewJobStore(cfg, rdb)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	for _, name := range cfg.RabbitMQ.Queues() {
		if _, err := queue.DeclareQueue(ch, name); err != nil {
			logger.Error("无法声明队列", "queue", name, "error", err)
			return
		}
	}

	// 排课很耗 CPU，每次只取一个任务
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	deliveries, err := ch.Consume(
		cfg.RabbitMQ.EvolutionQueue, // 队列
		"",                          // 消费者标识，由 RabbitMQ 自动分配
		false,                       // 手动确认
		false,                       // 不独占队列
		false,                       // RabbitMQ 不支持 noLocal
		false,                       // 等待 RabbitMQ 响应
		nil,                         // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	/**********************************************
	 * 启动 evolver
	 **********************************************/
	publisher := queue.NewPublisher(ch, cfg.RabbitMQ.PublishTimeout)
	evolver := worker.NewEvolver(cfg, repo, jobs, publisher)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		evolver.Run(ctx, deliveries)
	}()

	logger.Info("等待排课任务...（按 CTRL+C 退出）")
	<-sigChan

	// 正在运行的任务会在下一代结束时中断，并重新放回队列
	logger.Info("正在关闭 evolver...")
	cancel()
	wg.Wait()
	logger.Info("evolver 已成功关闭")
}
