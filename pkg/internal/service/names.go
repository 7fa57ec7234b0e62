package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yeisme/certvault/pkg/internal/render"
)

// ResolveNames 选择参与者名单：命令行参数优先，其次名单文件，最后配置中的 names.
// 名单中任何一个名字无法盖印都会在生成开始前报错.
func ResolveNames(args []string, namesFile string, configured []string) ([]string, error) {
	if len(args) > 0 {
		if err := checkNames(args, "argument"); err != nil {
			return nil, err
		}

		return args, nil
	}

	if namesFile != "" {
		f, err := os.Open(namesFile)
		if err != nil {
			return nil, fmt.Errorf("open names file: %w", err)
		}
		defer f.Close()

		return ParseNames(f)
	}

	if err := checkNames(configured, "configured name"); err != nil {
		return nil, err
	}

	return configured, nil
}

func checkNames(names []string, source string) error {
	for i, name := range names {
		if err := render.CheckName(name); err != nil {
			return fmt.Errorf("%s %d: %w", source, i+1, err)
		}
	}

	return nil
}

// ParseNames 一行一个名字，忽略空行与 # 开头的注释行，保留顺序与重复项.
// 无法原样盖印的名字报错并给出行号.
func ParseNames(r io.Reader) ([]string, error) {
	var (
		names  []string
		lineNo int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := render.CheckName(line); err != nil {
			return nil, fmt.Errorf("names line %d: %w", lineNo, err)
		}

		names = append(names, line)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}

	return names, nil
}
