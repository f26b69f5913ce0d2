package models

import "strings"

// Language is the closed set of languages the assistant answers in.
type Language string

// LanguageStrings holds every language-dependent text used by the relay and the chat UI.
type LanguageStrings struct {
	// Label is the language's name in its own script, shown in the language picker.
	Label string
	// SystemPrompt is prepended to every upstream conversation.
	SystemPrompt string
	// Welcome is the greeting shown before the first turn.
	Welcome string
	// ErrorReply is appended as an assistant message when a reply fails.
	ErrorReply string
	// SendFailed is the inline notice shown under the input when a send fails.
	SendFailed string
	// Placeholder is the input hint of the chat box.
	Placeholder string
	// SampleQuestions are offered as one-click prompts on an empty conversation.
	SampleQuestions []string
}

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
	LanguageMarathi Language = "marathi"

	// DefaultLanguage is used whenever a language tag is missing or unknown.
	DefaultLanguage = LanguageEnglish
)

// Languages lists the supported languages in display order.
var Languages = []Language{LanguageEnglish, LanguageHindi, LanguageMarathi}

var englishSampleQuestions = []string{
	"What is leverage in Forex trading?",
	"How do I create a trading account?",
	"What are pips and how are they calculated?",
	"What is the difference between a bull and bear market?",
	"How can I manage risk in Forex trading?",
	"What are the major currency pairs?",
	"How does the spread work in Forex?",
	"What is margin in Forex trading?",
}

var languageStrings = map[Language]LanguageStrings{
	LanguageEnglish: {
		Label: "English",
		SystemPrompt: `You are a professional Forex trading assistant and expert. Your role is to help users understand Forex trading concepts, provide guidance on onboarding, answer frequently asked questions, and share relevant educational material.

Key areas you should help with:
- Forex basics (leverage, pips, currency pairs, spreads, etc.)
- Account creation and KYC processes
- Trading strategies and risk management
- Regulatory information
- Platform features and tools
- Market analysis and trends

Guidelines:
- Be professional, friendly, and educational
- Provide accurate and up-to-date information
- If asked about marketing materials or PDFs, mention that users can request them from customer support
- For account-specific issues, recommend contacting customer support
- Always emphasize risk management and responsible trading
- If you're unsure about specific regulatory or legal matters, recommend consulting with financial advisors

Remember to keep your responses concise but informative, and always prioritize user education and safety in trading.`,
		Welcome: "Hello! I'm your AI Forex trading assistant. I can help you with trading concepts, account setup, " +
			"market analysis, and answer any questions about Forex trading in multiple languages. " +
			"How can I assist you today?",
		ErrorReply:      "Sorry, I encountered an error. Please try again.",
		SendFailed:      "Failed to send message. Please try again.",
		Placeholder:     "Ask me about Forex trading, account setup, or market analysis...",
		SampleQuestions: englishSampleQuestions,
	},
	LanguageHindi: {
		Label: "हिन्दी",
		SystemPrompt: `आप एक पेशेवर फॉरेक्स ट्रेडिंग सहायक और विशेषज्ञ हैं। आपका काम उपयोगकर्ताओं को फॉरेक्स ट्रेडिंग की अवधारणाओं को समझने में मदद करना, ऑनबोर्डिंग पर मार्गदर्शन प्रदान करना, अक्सर पूछे जाने वाले प्रश्नों के उत्तर देना और प्रासंगिक शैक्षणिक सामग्री साझा करना है।

मुख्य क्षेत्र जिनमें आपको मदद करनी चाहिए:
- फॉरेक्स बेसिक्स (लीवरेज, पिप्स, करेंसी पेयर्स, स्प्रेड्स, आदि)
- अकाउंट बनाना और KYC प्रक्रियाएं
- ट्रेडिंग रणनीतियां और जोखिम प्रबंधन
- नियामक जानकारी
- प्लेटफॉर्म फीचर्स और टूल्स
- मार्केट विश्लेषण और ट्रेंड्स

दिशानिर्देश:
- पेशेवर, मित्रवत और शैक्षणिक बनें
- सटीक और अप-टू-डेट जानकारी प्रदान करें
- यदि मार्केटिंग सामग्री या PDF के बारे में पूछा जाए, तो बताएं कि उपयोगकर्ता इन्हें कस्टमर सपोर्ट से मांग सकते हैं
- अकाउंट-स्पेसिफिक मुद्दों के लिए, कस्टमर सपोर्ट से संपर्क करने की सिफारिश करें
- हमेशा रिस्क मैनेजमेंट और जिम्मेदार ट्रेडिंग पर जोर दें

अपने उत्तर संक्षिप्त लेकिन जानकारीपूर्ण रखें, और हमेशा ट्रेडिंग में उपयोगकर्ता शिक्षा और सुरक्षा को प्राथमिकता दें।`,
		Welcome:         "नमस्ते! मैं आपका AI फॉरेक्स ट्रेडिंग सहायक हूँ। मैं ट्रेडिंग की अवधारणाओं, अकाउंट सेटअप और मार्केट विश्लेषण में आपकी मदद कर सकता हूँ। आज मैं आपकी क्या सहायता करूँ?",
		ErrorReply:      "क्षमा करें, एक त्रुटि हुई। कृपया पुनः प्रयास करें।",
		SendFailed:      "संदेश भेजने में विफल। कृपया पुनः प्रयास करें।",
		Placeholder:     "फॉरेक्स ट्रेडिंग, अकाउंट सेटअप या मार्केट विश्लेषण के बारे में पूछें...",
		SampleQuestions: englishSampleQuestions,
	},
	LanguageMarathi: {
		Label: "मराठी",
		SystemPrompt: `तुम्ही एक व्यावसायिक फॉरेक्स ट्रेडिंग सहायक आणि तज्ञ आहात। तुमची भूमिका वापरकर्त्यांना फॉरेक्स ट्रेडिंगच्या संकल्पना समजून घेण्यास मदत करणे, ऑनबोर्डिंगवर मार्गदर्शन प्रदान करणे, वारंवार विचारले जाणारे प्रश्नांची उत्तरे देणे आणि संबंधित शैक्षणिक सामग्री सामायिक करणे आहे।

मुख्य क्षेत्रे ज्यात तुम्ही मदत करावी:
- फॉरेक्स मूलभूत गोष्टी (लीव्हरेज, पिप्स, चलन जोड्या, स्प्रेड्स, इ.)
- खाते तयार करणे आणि KYC प्रक्रिया
- ट्रेडिंग धोरणे आणि जोखीम व्यवस्थापन
- नियामक माहिती
- प्लॅटफॉर्म वैशिष्ट्ये आणि साधने
- बाजार विश्लेषण आणि ट्रेंड्स

मार्गदर्शक तत्त्वे:
- व्यावसायिक, मैत्रीपूर्ण आणि शैक्षणिक व्हा
- अचूक आणि अद्ययावत माहिती प्रदान करा
- मार्केटिंग सामग्री किंवा PDF बद्दल विचारले असल्यास, सांगा की वापरकर्ते ग्राहक सेवेकडून त्यांची विनंती करू शकतात
- खाते-विशिष्ट समस्यांसाठी, ग्राहक सेवेशी संपर्क साधण्याची शिफारस करा
- नेहमी जोखीम व्यवस्थापन आणि जबाबदार ट्रेडिंगवर भर द्या

तुमची उत्तरे संक्षिप्त परंतु माहितीपूर्ण ठेवा, आणि ट्रेडिंगमध्ये वापरकर्ता शिक्षण आणि सुरक्षिततेला नेहमी प्राधान्य द्या।`,
		Welcome:         "नमस्कार! मी तुमचा AI फॉरेक्स ट्रेडिंग सहायक आहे। ट्रेडिंग संकल्पना, खाते सेटअप आणि बाजार विश्लेषणात मी तुम्हाला मदत करू शकतो। आज मी तुमची काय मदत करू?",
		ErrorReply:      "क्षमस्व, एक त्रुटी आली. कृपया पुन्हा प्रयत्न करा.",
		SendFailed:      "संदेश पाठवता आला नाही. कृपया पुन्हा प्रयत्न करा.",
		Placeholder:     "फॉरेक्स ट्रेडिंग, खाते सेटअप किंवा बाजार विश्लेषणाबद्दल विचारा...",
		SampleQuestions: englishSampleQuestions,
	},
}

// ParseLanguage maps a client-supplied language tag to a supported Language. Matching is case-insensitive
// and ignores surrounding whitespace; empty or unknown tags resolve to DefaultLanguage.
func ParseLanguage(tag string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := languageStrings[l]; ok {
		return l
	}
	return DefaultLanguage
}

// Strings returns the text table of l, falling back to DefaultLanguage for values outside the enumeration.
func (l Language) Strings() LanguageStrings {
	if s, ok := languageStrings[l]; ok {
		return s
	}
	return languageStrings[DefaultLanguage]
}

// SystemPrompt is shorthand for l.Strings().SystemPrompt.
func (l Language) SystemPrompt() string {
	return l.Strings().SystemPrompt
}
