// Package e2e provides end-to-end tests of the build, persist, load and serve pipeline.
package e2e

import (
	"fmt"

	"github.com/remixer1943/Ai/internal/models"
)

// QueryTestCase is a query and the chunk id expected at rank 1.
type QueryTestCase struct {
	Query       string
	ExpectedID  string
	Description string
}

// Corpus holds knowledge-base chunks and query test cases.
type Corpus struct {
	Chunks    []models.Chunk
	TestCases []QueryTestCase
}

// topics pairs each passage with a short query that shares its distinctive characters.
var topics = []struct {
	text   string
	source string
	query  string
}{
	{"苹果是一种常见的水果，富含维生素和膳食纤维。", "水果.pdf", "苹果"},
	{"猫是一种受欢迎的宠物，喜欢晒太阳和睡觉。", "宠物.pdf", "宠物猫"},
	{"光合作用是植物利用阳光把二氧化碳和水转化为葡萄糖的过程。", "生物.pdf", "光合作用"},
	{"长城是中国古代修建的军事防御工程，全长两万多公里。", "历史.pdf", "长城"},
	{"牛顿第二定律指出物体加速度与所受合力成正比。", "物理.pdf", "牛顿定律"},
	{"Go 语言通过 goroutine 和 channel 实现并发编程。", "编程.pdf", "并发编程"},
	{"高血压患者应当减少盐的摄入并坚持规律运动。", "健康.pdf", "高血压"},
	{"太阳系有八大行星，其中木星的体积最大。", "天文.pdf", "木星"},
	{"熊猫主要以竹子为食，是中国的国宝。", "动物.pdf", "熊猫竹子"},
	{"股票市场的价格受供求关系和投资者情绪影响。", "金融.pdf", "股票价格"},
	{"咖啡因能够提神醒脑，但过量饮用会影响睡眠。", "饮食.pdf", "咖啡因"},
	{"二进制只使用零和一两个数字来表示数值。", "计算机.pdf", "二进制"},
}

// BuildCorpus returns one chunk per topic (ids chunk-1..chunk-N) and a test case per topic.
// The expectations hold for the mock embedder with an empty query instruction.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, t := range topics {
		id := fmt.Sprintf("chunk-%d", i+1)
		c.Chunks = append(c.Chunks, models.Chunk{ID: id, Text: t.text, Source: t.source})
		c.TestCases = append(c.TestCases, QueryTestCase{
			Query:       t.query,
			ExpectedID:  id,
			Description: fmt.Sprintf("%s->%s", t.query, id),
		})
	}
	return c
}
