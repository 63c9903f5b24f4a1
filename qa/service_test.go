package qa_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/communitykit/smartqa/llm"
	"github.com/communitykit/smartqa/qa"
)

type stubStores struct {
	owner    *qa.Owner
	ownerErr error

	residences    []qa.Residence
	residencesErr error

	primary    *qa.Residence
	primaryErr error

	count       int64
	countErr    error
	countPanics bool

	vehicles    []qa.Vehicle
	vehiclesErr error

	meters    []qa.MeterReading
	metersErr error

	documents    []qa.Document
	documentsErr error

	knowledgeCalls int32
	ownerCalls     int32
	meterCalls     int32
	countCalls     int32
}

func (s *stubStores) Owner(ctx context.Context, id int64) (*qa.Owner, error) {
	atomic.AddInt32(&s.ownerCalls, 1)
	return s.owner, s.ownerErr
}

func (s *stubStores) ActiveResidences(ctx context.Context, ownerID int64, limit int) ([]qa.Residence, error) {
	return s.residences, s.residencesErr
}

func (s *stubStores) PrimaryResidence(ctx context.Context, ownerID int64) (*qa.Residence, error) {
	return s.primary, s.primaryErr
}

func (s *stubStores) CountActiveResidences(ctx context.Context, ownerID int64) (int64, error) {
	atomic.AddInt32(&s.countCalls, 1)
	if s.countPanics {
		panic("count blew up")
	}
	return s.count, s.countErr
}

func (s *stubStores) ActiveVehicles(ctx context.Context, ownerID int64, limit int) ([]qa.Vehicle, error) {
	return s.vehicles, s.vehiclesErr
}

func (s *stubStores) ActiveMeters(ctx context.Context, houseID int64, limit int) ([]qa.MeterReading, error) {
	atomic.AddInt32(&s.meterCalls, 1)
	return s.meters, s.metersErr
}

func (s *stubStores) EnabledDocuments(ctx context.Context, keywords []string, limit int) ([]qa.Document, error) {
	atomic.AddInt32(&s.knowledgeCalls, 1)
	return s.documents, s.documentsErr
}

var (
	_ qa.OwnerStore     = (*stubStores)(nil)
	_ qa.ResidenceStore = (*stubStores)(nil)
	_ qa.VehicleStore   = (*stubStores)(nil)
	_ qa.MeterStore     = (*stubStores)(nil)
	_ qa.KnowledgeStore = (*stubStores)(nil)
)

type stubFetcher struct {
	content string
	err     error
	calls   int32
}

func (f *stubFetcher) Fetch(ctx context.Context, id int64, url, fileType string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.content, f.err
}

var _ qa.FileFetcher = (*stubFetcher)(nil)

type stubLLM struct {
	chunks []string
	err    error

	called   bool
	messages []llm.Message
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.called = true
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.chunks, ""), nil
}

func (s *stubLLM) GenerateStream(ctx context.Context, messages []llm.Message, fn func(string) error) error {
	s.called = true
	s.messages = messages
	for _, chunk := range s.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return s.err
}

var _ llm.StreamClient = (*stubLLM)(nil)

func newService(stores *stubStores, fetcher *stubFetcher, model *stubLLM) *qa.Service {
	var files qa.FileFetcher
	if fetcher != nil {
		files = fetcher
	}
	return qa.NewService(qa.Stores{
		Owners:     stores,
		Residences: stores,
		Vehicles:   stores,
		Meters:     stores,
		Knowledge:  stores,
	}, files, model, zap.NewNop())
}

func collect(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var chunks []string
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func systemPrompt(t *testing.T, model *stubLLM) string {
	t.Helper()
	require.NotEmpty(t, model.messages)
	require.Equal(t, llm.RoleSystem, model.messages[0].Role)
	return model.messages[0].Content
}

func TestStreamAnswerRejectsBlankQuestion(t *testing.T) {
	stores := &stubStores{}
	model := &stubLLM{chunks: []string{"should never stream"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "   \t "}))

	require.Equal(t, []string{"请输入有效的问题。"}, chunks)
	require.False(t, model.called)
	require.Zero(t, atomic.LoadInt32(&stores.knowledgeCalls))
	require.Zero(t, atomic.LoadInt32(&stores.ownerCalls))
}

func TestStreamAnswerHousingAndVehicleRoundTrip(t *testing.T) {
	stores := &stubStores{
		owner:      &qa.Owner{ID: 1, Name: "张三", Type: ""},
		residences: []qa.Residence{{HouseID: 10, RoomNo: "1-101", Layout: "三室一厅", BuildingArea: "120.00"}},
		primary:    &qa.Residence{HouseID: 10, RoomNo: "1-101", Layout: "三室一厅"},
		vehicles:   []qa.Vehicle{{Plate: "京A12345", Brand: "比亚迪", Model: "汉", Type: "轿车"}},
	}
	model := &stubLLM{chunks: []string{"好的"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{
		Question: "我的房屋信息和车辆信息",
		OwnerID:  1,
	}))

	require.Equal(t, []string{"好的"}, chunks)

	prompt := systemPrompt(t, model)
	require.Contains(t, prompt, "=== 社区本地信息 ===") // grounded even without knowledge hits
	require.Contains(t, prompt, "【您的房屋信息】")
	require.Contains(t, prompt, "• 房号：1-101，户型：三室一厅，建筑面积：120.00㎡")
	require.Contains(t, prompt, "【您的车辆信息】")
	require.Contains(t, prompt, "• 车牌：京A12345，品牌：比亚迪 汉，类型：轿车")

	// No fee or meter trigger words in the question.
	require.NotContains(t, prompt, "【您的费用信息】")
	require.NotContains(t, prompt, "【您的抄表信息】")
	require.Zero(t, atomic.LoadInt32(&stores.countCalls))
	require.Zero(t, atomic.LoadInt32(&stores.meterCalls))

	// Defaulted owner type label.
	require.Contains(t, prompt, "【当前业主信息】")
	require.Contains(t, prompt, "业主类型：业主")

	// Last message is the question itself.
	last := model.messages[len(model.messages)-1]
	require.Equal(t, llm.RoleUser, last.Role)
	require.Equal(t, "我的房屋信息和车辆信息", last.Content)
}

func TestStreamAnswerStructuredFailureIsolated(t *testing.T) {
	stores := &stubStores{
		residencesErr: errors.New("house table offline"),
		primaryErr:    errors.New("house table offline"),
		vehicles:      []qa.Vehicle{{Plate: "沪B88888"}},
	}
	model := &stubLLM{chunks: []string{"答案"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{
		Question: "房屋和车辆",
		OwnerID:  2,
	}))

	require.NotEmpty(t, chunks)
	require.Equal(t, []string{"答案"}, chunks)

	prompt := systemPrompt(t, model)
	require.NotContains(t, prompt, "【您的房屋信息】")
	require.Contains(t, prompt, "【您的车辆信息】")
	require.Contains(t, prompt, "• 车牌：沪B88888")
}

func TestStreamAnswerSurvivesPanickingLookup(t *testing.T) {
	stores := &stubStores{countPanics: true}
	model := &stubLLM{chunks: []string{"收到"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{
		Question: "物业费怎么缴",
		OwnerID:  3,
	}))

	require.Equal(t, []string{"收到"}, chunks)
	require.NotContains(t, systemPrompt(t, model), "【您的费用信息】")
}

func TestStreamAnswerUngroundedDisclosure(t *testing.T) {
	stores := &stubStores{}
	model := &stubLLM{chunks: []string{"回复"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "今天天气"}))

	require.Equal(t, []string{"回复"}, chunks)

	prompt := systemPrompt(t, model)
	require.Contains(t, prompt, "当前社区暂无相关信息")
	require.NotContains(t, prompt, "=== 社区本地信息 ===")
}

func TestStreamAnswerModelErrorMidStream(t *testing.T) {
	stores := &stubStores{}
	model := &stubLLM{chunks: []string{"您", "好"}, err: errors.New("connection reset")}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "你好"}))

	require.Len(t, chunks, 3)
	require.Equal(t, "您", chunks[0])
	require.Equal(t, "好", chunks[1])
	require.Contains(t, chunks[2], "抱歉，智能问答服务暂时不可用")
	require.Contains(t, chunks[2], "connection reset")
}

func TestStreamAnswerNeverEmpty(t *testing.T) {
	stores := &stubStores{}
	model := &stubLLM{} // model yields no content at all
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "你好"}))

	require.Len(t, chunks, 1)
	require.NotEmpty(t, chunks[0])
}

func TestStreamAnswerKnowledgeBlockWithPlaceholderDecode(t *testing.T) {
	stores := &stubStores{
		documents: []qa.Document{{
			ID:          9,
			Title:       "装修管理规定",
			Category:    "物业",
			Description: "装修时间与押金要求",
			FilePath:    "https://files.example.com/deco.docx",
			FileType:    "docx",
		}},
	}
	fetcher := &stubFetcher{content: "（文档解析组件不可用，无法读取该文件内容）"}
	model := &stubLLM{chunks: []string{"好"}}
	svc := newService(stores, fetcher, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "装修规定"}))

	require.Equal(t, []string{"好"}, chunks)
	require.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))

	prompt := systemPrompt(t, model)
	require.Contains(t, prompt, "📄 装修管理规定 [物业]")
	require.Contains(t, prompt, "摘要：装修时间与押金要求")
	require.Contains(t, prompt, "【来自文档: 装修管理规定 (docx)】")
	require.Contains(t, prompt, "（文档解析组件不可用，无法读取该文件内容）")
}

func TestStreamAnswerKnowledgeFetchFailureKeepsSummary(t *testing.T) {
	stores := &stubStores{
		documents: []qa.Document{{
			ID:       11,
			Title:    "停车管理办法",
			Category: "车辆",
			FilePath: "https://files.example.com/parking.docx",
			FileType: "docx",
		}},
	}
	fetcher := &stubFetcher{err: errors.New("download timeout")}
	model := &stubLLM{chunks: []string{"好"}}
	svc := newService(stores, fetcher, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "停车规定"}))

	require.Equal(t, []string{"好"}, chunks)

	prompt := systemPrompt(t, model)
	require.Contains(t, prompt, "📄 停车管理办法 [车辆]")
	require.NotContains(t, prompt, "【来自文档: 停车管理办法")
}

func TestStreamAnswerKnowledgeStoreFailureDegrades(t *testing.T) {
	stores := &stubStores{documentsErr: errors.New("knowledge table offline")}
	model := &stubLLM{chunks: []string{"好"}}
	svc := newService(stores, nil, model)

	chunks := collect(t, svc.StreamAnswer(context.Background(), qa.Request{Question: "装修规定"}))

	require.Equal(t, []string{"好"}, chunks)
	require.Contains(t, systemPrompt(t, model), "当前社区暂无相关信息")
}
