package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// 所有超时和过期时间都使用 time.ParseDuration 的格式，例如 10s、336h

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxImportSize   int64         `env:"MAX_IMPORT_SIZE" envDefault:"4194304"` // 导入课程文件的大小上限，4 MiB
}

func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type DatabaseConfig struct {
	DSN                string        `env:"DSN,required"`
	ConnectTimeout     time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	QueryTimeout       time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`
	TransactionTimeout time.Duration `env:"TRANSACTION_TIMEOUT" envDefault:"20s"`
	MaxOpenConns       int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxIdleTime        time.Duration `env:"MAX_IDLE_TIME" envDefault:"60s"`
}

type RabbitMQConfig struct {
	DSN            string        `env:"DSN,required"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"10s"`
	EmailQueue     string        `env:"EMAIL_QUEUE" envDefault:"email_queue"`
	EvolutionQueue string        `env:"EVOLUTION_QUEUE" envDefault:"evolution_queue"`
}

// Queues 返回需要声明的全部队列
func (c RabbitMQConfig) Queues() []string {
	return []string{c.EmailQueue, c.EvolutionQueue}
}

type RedisConfig struct {
	Host             string        `env:"HOST" envDefault:"localhost"`
	Port             int           `env:"PORT" envDefault:"6379"`
	Password         string        `env:"PASSWORD,required"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"10s"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EvolutionConfig 排课任务的默认参数，请求中没有指定时使用
type EvolutionConfig struct {
	GenerationSize    int           `env:"GENERATION_SIZE" envDefault:"100"`
	MaxGenerations    int           `env:"MAX_GENERATIONS" envDefault:"100"`
	MaxGenerationSize int           `env:"MAX_GENERATION_SIZE" envDefault:"500"` // 每一代会产生 size² 个子代，需要限制
	Parallelism       int           `env:"PARALLELISM" envDefault:"4"`
	Seed              uint64        `env:"SEED" envDefault:"0"` // 为 0 时每次随机
	JobExpiration     time.Duration `env:"JOB_EXPIRATION" envDefault:"24h"`
	Timeout           time.Duration `env:"TIMEOUT" envDefault:"30m"`
}

type Config struct {
	Environment  string          `env:"ENVIRONMENT" envDefault:"development"`
	Server       ServerConfig    `envPrefix:"SERVER_"`
	Database     DatabaseConfig  `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration time.Duration `env:"EXPIRATION" envDefault:"336h"`
		Secret     string        `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		UserPassword string `env:"USER_PASSWORD,required"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string        `env:"USERNAME,required"`
			Password    string        `env:"PASSWORD,required"`
			Host        string        `env:"HOST,required"`
			Port        int           `env:"PORT" envDefault:"465"`
			DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ  RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Evolution EvolutionConfig `envPrefix:"EVOLUTION_"`
	NewUser   struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// 只返回第一个错误，日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.Evolution.GenerationSize > cfg.Evolution.MaxGenerationSize {
		return nil, fmt.Errorf("默认的代的大小 %d 超过了上限 %d", cfg.Evolution.GenerationSize, cfg.Evolution.MaxGenerationSize)
	}

	return cfg, nil
}
