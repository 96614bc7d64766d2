package scanning

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Groq", func() {
	var (
		server   *ghttp.Server
		analyzer *Groq
		captured map[string]any
		text     string
		err      error
	)

	completion := func(content string) map[string]any {
		return map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "llama-3.2-90b-vision-preview",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		captured = nil
		analyzer, err = NewGroq("test-key", "", server.URL())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = analyzer.Analyze(context.Background(), []byte("png"), "")
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				func(w http.ResponseWriter, r *http.Request) {
					Expect(json.NewDecoder(r.Body).Decode(&captured)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, completion("ROE stood at 12.5%")),
			))
		})

		It("should return the analysis", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("ROE stood at 12.5%"))
		})

		It("should use the default model and generation budget", func() {
			Expect(captured["model"]).To(Equal("llama-3.2-90b-vision-preview"))
			Expect(captured["temperature"]).To(BeNumerically("~", 0.1, 1e-6))
			Expect(captured["max_tokens"]).To(BeNumerically("==", 2000))
		})

		It("should send the image as a data URL followed by the prompt", func() {
			messages := captured["messages"].([]any)
			Expect(messages).To(HaveLen(1))
			content := messages[0].(map[string]any)["content"].([]any)
			Expect(content).To(HaveLen(2))
			image := content[0].(map[string]any)
			Expect(image["type"]).To(Equal("image_url"))
			Expect(image["image_url"].(map[string]any)["url"]).To(Equal("data:image/png;base64,cG5n"))
			Expect(content[1].(map[string]any)["text"]).To(Equal(DefaultPrompt))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
			}))
		})

		It("should return an error", func() {
			Expect(err).To(MatchError(ContainSubstring("creating chat completion")))
		})
	})

	When("there are no choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"id": "chatcmpl-2", "choices": []any{},
			}))
		})

		It("should return ErrEmptyResponse", func() {
			Expect(err).To(MatchError(ErrEmptyResponse))
		})
	})
})

var _ = Describe("NewGroq", func() {
	It("should require an api key", func() {
		_, err := NewGroq("", "", "")
		Expect(err).To(HaveOccurred())
	})
})
