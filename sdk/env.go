package sdk

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"github.com/azhengyongqin/fetchhub/internal/logger"
)

var loadEnvOnce sync.Once

// LoadEnv 从当前目录向上最多三级查找 .env 并加载；已有的环境变量不会被覆盖。
// 编排进程启动 worker 时会传递自身环境，.env 只用于手动调试 worker。
func LoadEnv() {
	loadEnvOnce.Do(func() {
		path := findEnvFile()
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("加载 .env 失败")
			return
		}
		logger.Debug().Str("path", path).Msg("已加载环境变量文件")
	})
}

func findEnvFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := wd
	for i := 0; i < 4; i++ {
		candidate := filepath.Join(dir, ".env")
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
