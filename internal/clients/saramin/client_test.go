package saramin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func okResponse(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func statusResponse(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func newTestClient(httpClient HTTPClient, policy RetryPolicy) *Client {
	client := NewClient()
	client.SetHTTPClient(httpClient)
	client.SetRetryPolicy(policy)
	client.SetPacing(0)
	return client
}

func Test_Client_Fetch_SendsUserAgent(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Header.Get("User-Agent") == DefaultUserAgent && req.Method == http.MethodGet
	})).Return(okResponse("<html></html>"), nil).Once()

	client := newTestClient(httpClient, RetryPolicy{Limit: 0})

	body, err := client.Fetch(context.Background(), "https://www.saramin.co.kr/page")
	assert.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))
	httpClient.AssertExpectations(t)
}

func Test_Client_Fetch_AlwaysFailing_AttemptsRetryLimitPlusOne(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.Anything).Return(nil, errors.New("connection reset"))

	policy := RetryPolicy{Limit: 3, Delay: 10 * time.Millisecond, Multiplier: 2}
	client := newTestClient(httpClient, policy)

	start := time.Now()
	_, err := client.Fetch(context.Background(), "https://www.saramin.co.kr/page")
	elapsed := time.Since(start)

	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 4, fetchErr.Attempts)
	assert.Equal(t, "https://www.saramin.co.kr/page", fetchErr.URL)
	httpClient.AssertNumberOfCalls(t, "Do", 4)
	// 10ms + 20ms + 40ms
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
}

func Test_Client_Fetch_RetriesNon2xx(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.Anything).Return(statusResponse(http.StatusServiceUnavailable), nil).Once()
	httpClient.On("Do", mock.Anything).Return(okResponse("ok"), nil).Once()

	client := newTestClient(httpClient, RetryPolicy{Limit: 2, Delay: time.Millisecond, Multiplier: 1})

	body, err := client.Fetch(context.Background(), "https://www.saramin.co.kr/page")
	assert.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	httpClient.AssertNumberOfCalls(t, "Do", 2)
}

func Test_Client_Fetch_StatusErrorIsUnwrappable(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.Anything).Return(statusResponse(http.StatusNotFound), nil)

	client := newTestClient(httpClient, RetryPolicy{Limit: 0})

	_, err := client.Fetch(context.Background(), "https://www.saramin.co.kr/missing")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func Test_Client_Fetch_CanceledDuringBackoff(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.Anything).Return(nil, errors.New("timeout"))

	client := newTestClient(httpClient, RetryPolicy{Limit: 3, Delay: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Fetch(ctx, "https://www.saramin.co.kr/page")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	httpClient.AssertNumberOfCalls(t, "Do", 1)
}

func Test_Client_Fetch_PacesRequests(t *testing.T) {
	httpClient := &mockHTTPClient{}
	httpClient.On("Do", mock.Anything).Return(okResponse("ok"), nil).Once()
	httpClient.On("Do", mock.Anything).Return(okResponse("ok"), nil).Once()

	client := newTestClient(httpClient, RetryPolicy{Limit: 0})
	client.SetPacing(50 * time.Millisecond)

	start := time.Now()
	_, err := client.Fetch(context.Background(), "https://www.saramin.co.kr/1")
	assert.NoError(t, err)
	_, err = client.Fetch(context.Background(), "https://www.saramin.co.kr/2")
	assert.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func Test_RetryPolicy_Backoff(t *testing.T) {
	policy := RetryPolicy{Limit: 3, Delay: 2 * time.Second, Multiplier: 2}

	assert.Equal(t, 2*time.Second, policy.Backoff(1))
	assert.Equal(t, 4*time.Second, policy.Backoff(2))
	assert.Equal(t, 8*time.Second, policy.Backoff(3))
}

func Test_SearchURL(t *testing.T) {
	client := NewClient()

	url, err := client.SearchURL("개발자", 2)
	assert.NoError(t, err)
	assert.Equal(t, "https://www.saramin.co.kr/zf_user/search/recruit?recruitPage=2&searchType=search&searchword=%EA%B0%9C%EB%B0%9C%EC%9E%90", url)

	_, err = client.SearchURL(" ", 1)
	assert.Error(t, err)
	_, err = client.SearchURL("개발자", 0)
	assert.Error(t, err)
}
