package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/utils"

)

func main() {
	var op int
	var n int
	var file string
	var bonus string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机学期, 3: 导入课程目录文件)")
	flag.IntVar(&n, "n", 5, "要插入的用户数量或随机学期的课程数量")
	flag.StringVar(&file, "file", "", "课程目录文件的路径，文件名即学期名称")
	flag.StringVar(&bonus, "bonus", "", "加分 csv 文件的路径，可选")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.UserPassword, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的课程数量")
			return
		}

		semester := utils.GenerateRandomSemester(n)
		if err := repo.CreateSemester(semester); err != nil {
			slog.Error("无法插入随机学期", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入随机学期成功", slog.Int64("semester_id", semester.ID), slog.Int("schedules", len(semester.Schedules)))
	case 3:
		if file == "" {
			slog.Error("请指定课程目录文件")
			return
		}

		semester, err := seed.SeedCatalog(repo, file, bonus)
		if err != nil {
			slog.Error("无法导入课程目录", slog.String("error", err.Error()))
			return
		}

		slog.Info("导入课程目录成功", slog.Int64("semester_id", semester.ID), slog.String("name", semester.Name))
	default:
		slog.Error("指定的操作非法")
	}
}
