package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/saramin-crawler/internal/domain/events"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	log "github.com/sirupsen/logrus"
)

const (
	maxReportedErrors = 5
	maxReportedJobs   = 10
)

type apiInterface interface {
	Send(chattable botApi.Chattable) (botApi.Message, error)
}

// Notifier posts a summary of every finished crawl run to one telegram chat.
// Jobs created during the run are listed below the summary.
type Notifier struct {
	api    apiInterface
	chatID int64

	mu      sync.Mutex
	newJobs []events.JobCreated
}

func NewNotifier(token string, chatID int64, bus EventBus.Bus) (*Notifier, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	if err = botApi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}

	return newNotifier(api, chatID, bus)
}

func newNotifier(api apiInterface, chatID int64, bus EventBus.Bus) (*Notifier, error) {
	notifier := &Notifier{api: api, chatID: chatID}
	if err := bus.Subscribe(events.JobCreatedTopic, notifier.onJobCreated); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(events.CrawlCompletedTopic, notifier.onCrawlCompleted); err != nil {
		return nil, err
	}
	return notifier, nil
}

func (n *Notifier) onJobCreated(event events.JobCreated) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newJobs = append(n.newJobs, event)
}

func (n *Notifier) takeNewJobs() []events.JobCreated {
	n.mu.Lock()
	defer n.mu.Unlock()
	jobs := n.newJobs
	n.newJobs = nil
	return jobs
}

func (n *Notifier) onCrawlCompleted(event events.CrawlCompleted) {
	text := FormatSummary(event.Summary)
	if jobs := n.takeNewJobs(); len(jobs) > 0 {
		text += "\n" + FormatNewJobs(jobs)
	}

	msg := botApi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("error occured while sending message: %v", err)
	}
}

func FormatSummary(summary models.CrawlRunSummary) string {
	var sb strings.Builder

	status := "완료"
	if summary.Canceled {
		status = "중단"
	}
	fmt.Fprintf(&sb, "사람인 크롤링 %s (%v)\n", status, summary.Duration().Round(time.Second))
	fmt.Fprintf(&sb, "수집 %d / 신규 %d / 변경 %d / 동일 %d\n",
		summary.Totals.Seen, summary.Totals.Created, summary.Totals.Updated, summary.Totals.Unchanged)
	if summary.Totals.Failed > 0 || summary.Totals.Skipped > 0 {
		fmt.Fprintf(&sb, "실패 %d / 건너뜀 %d\n", summary.Totals.Failed, summary.Totals.Skipped)
	}
	if summary.ClosedJobs > 0 {
		fmt.Fprintf(&sb, "마감 처리 %d\n", summary.ClosedJobs)
	}

	for _, keyword := range summary.Keywords {
		fmt.Fprintf(&sb, "- %s: %d건 (신규 %d)\n", keyword.Keyword, keyword.Counts.Seen, keyword.Counts.Created)
	}

	if len(summary.Errors) > 0 {
		fmt.Fprintf(&sb, "오류 %d건\n", len(summary.Errors))
		for i, crawlErr := range summary.Errors {
			if i == maxReportedErrors {
				fmt.Fprintf(&sb, "... 외 %d건\n", len(summary.Errors)-maxReportedErrors)
				break
			}
			fmt.Fprintf(&sb, "* %s\n", describeError(crawlErr))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func FormatNewJobs(jobs []events.JobCreated) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "신규 공고 %d건\n", len(jobs))
	for i, created := range jobs {
		if i == maxReportedJobs {
			fmt.Fprintf(&sb, "... 외 %d건\n", len(jobs)-maxReportedJobs)
			break
		}
		fmt.Fprintf(&sb, "* [%s] %s %s\n", created.Keyword, created.Job.Title, created.Job.OriginalPostingURL)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func describeError(crawlErr models.CrawlError) string {
	switch {
	case crawlErr.ListingURL != "":
		return fmt.Sprintf("%s: %s", crawlErr.ListingURL, crawlErr.Reason)
	case crawlErr.Page > 0:
		return fmt.Sprintf("%s p.%d: %s", crawlErr.Keyword, crawlErr.Page, crawlErr.Reason)
	default:
		return crawlErr.Reason
	}
}
