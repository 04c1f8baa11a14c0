package runtime

import (
	"bufio"
	"chat-relay/errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
)

const wordListExt = ".txt"

// CensoredData is the merged content of every word list, with the list
// names ("en.txt" -> "en") kept for the startup log.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads one word per line from the .txt files of a directory.
// Blank lines and lines starting with '#' are skipped.
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

func (l *CensoredLoader) LoadAll(dir string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}
	lists := lo.Filter(entries, func(entry fs.DirEntry, _ int) bool {
		return !entry.IsDir() && strings.HasSuffix(entry.Name(), wordListExt)
	})

	data := &CensoredData{}
	for _, list := range lists {
		words, err := l.readList(path.Join(dir, list.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", list.Name(), err)
		}
		data.Words = append(data.Words, words...)
		data.Languages = append(data.Languages, strings.TrimSuffix(list.Name(), wordListExt))
	}

	data.Words = lo.Uniq(data.Words)
	if len(data.Words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return data, nil
}

func (l *CensoredLoader) readList(name string) ([]string, error) {
	file, err := l.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words, scanner.Err()
}
