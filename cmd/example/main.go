package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/azhengyongqin/fetchhub/sdk"
)

// 示例客户端。submit 提交单个任务并等待结束；generate-test-data 批量提交随机任务，
// 用于观察并发上限与实时推送。
func main() {
	sdk.LoadEnv()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:28080"
	}
	client := sdk.New(baseURL, os.Getenv("FETCHHUB_TOKEN"))
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "submit":
		err = submit(ctx, client, os.Args[2:])
	case "generate-test-data":
		err = generateTestData(ctx, client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("执行失败: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: example submit [-format mp3] [-quality high] <url>")
	fmt.Fprintln(os.Stderr, "       example generate-test-data [-count 20] [-concurrency 4]")
}

func submit(ctx context.Context, client *sdk.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	format := fs.String("format", "", "输出格式 mp3/m4a/opus/flac/wav")
	quality := fs.String("quality", "", "质量 best/high/medium/low")
	collection := fs.String("collection", "", "目标专辑/播放列表名称")
	wait := fs.Bool("wait", true, "等待任务结束")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("需要提供一个 URL")
	}

	task, err := client.SubmitTask(ctx, sdk.SubmitRequest{
		URL:            fs.Arg(0),
		Format:         *format,
		Quality:        *quality,
		CollectionName: *collection,
	})
	if err != nil {
		return err
	}
	log.Printf("已提交任务 #%d (%s, %s)", task.ID, task.Source, task.Status)
	if !*wait {
		return nil
	}

	final, err := client.WaitForTerminal(ctx, task.ID, 2*time.Second)
	if err != nil {
		return err
	}
	log.Printf("任务 #%d 结束: %s %s", final.ID, final.Status, final.ErrorMessage)
	return nil
}

// sampleURLs 覆盖三种来源与单曲/合集
var sampleURLs = []string{
	"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	"https://music.youtube.com/playlist?list=OLAK5uy_demo",
	"https://soundcloud.com/artist/track-name",
	"https://soundcloud.com/artist/sets/ep",
	"https://artist.bandcamp.com/track/single",
	"https://artist.bandcamp.com/album/record",
}

var (
	sampleFormats   = []string{"mp3", "m4a", "opus", "flac"}
	sampleQualities = []string{"best", "high", "medium", "low"}
)

func generateTestData(ctx context.Context, client *sdk.Client, args []string) error {
	fs := flag.NewFlagSet("generate-test-data", flag.ExitOnError)
	count := fs.Int("count", 20, "提交任务数")
	concurrency := fs.Int("concurrency", 4, "并发提交数")
	_ = fs.Parse(args)

	log.Println("=== 开始生成测试数据 ===")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	jobs := make(chan sdk.SubmitRequest)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				task, err := client.SubmitTask(ctx, req)
				mu.Lock()
				if err != nil {
					fail++
					log.Printf("提交失败: %v", err)
				} else {
					ok++
					log.Printf("任务 #%d %s -> %s", task.ID, task.SourceURL, task.Status)
				}
				mu.Unlock()
			}
		}()
	}

loop:
	for i := 0; i < *count; i++ {
		req := sdk.SubmitRequest{
			URL:     sampleURLs[rng.Intn(len(sampleURLs))],
			Format:  sampleFormats[rng.Intn(len(sampleFormats))],
			Quality: sampleQualities[rng.Intn(len(sampleQualities))],
		}
		select {
		case jobs <- req:
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	list, err := client.ListTasks(ctx, sdk.ListOptions{Status: "running"})
	if err != nil {
		return err
	}
	log.Printf("=== 完成: 成功 %d, 失败 %d, 当前运行中 %d ===", ok, fail, list.Total)
	return nil
}
