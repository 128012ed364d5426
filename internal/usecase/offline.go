package usecase

import "strings"

const connectedGreeting = "Hello %s! I'm your advanced AI Health Assistant. I can help you with:\n\n" +
	"• Health questions and medical guidance\n" +
	"• Symptom analysis and assessment\n" +
	"• Medication information and interactions\n" +
	"• Medical image analysis (wounds, skin conditions)\n" +
	"• Voice consultations with transcription\n" +
	"• Emergency guidance and triage\n\n" +
	"How can I assist you today? You can type, speak, or upload images for analysis."

const basicModeGreeting = "Hello %s! I'm your AI Health Assistant. Currently operating in basic mode as the advanced AI service is temporarily unavailable.\n\n" +
	"I can still help you with:\n" +
	"• General health information\n" +
	"• Basic symptom guidance\n" +
	"• Emergency contact information\n" +
	"• Health education resources\n\n" +
	"For urgent health concerns, please contact your healthcare provider or emergency services immediately.\n\n" +
	"How can I assist you today?"

const offlineGreeting = "I'm experiencing connection issues right now. I'm operating in offline mode with basic health guidance.\n\n" +
	"🚨 For urgent health concerns, please:\n" +
	"• Call 911 for emergencies\n" +
	"• Contact your healthcare provider\n" +
	"• Visit the nearest clinic\n\n" +
	"I can still provide general health information and emergency contact details. How can I help?"

const chatFailureMessage = "I'm having trouble connecting to the AI service right now. For urgent health concerns, please contact your healthcare provider or emergency services immediately.\n\n" +
	"I can still provide basic health information in offline mode. Would you like me to help with general health questions?"

const emergencyResponse = "🚨 This sounds like a medical emergency!\n\n" +
	"**CALL 911 IMMEDIATELY**\n\n" +
	"For emergency services:\n" +
	"• Phone: 911\n" +
	"• Or go to the nearest emergency room\n\n" +
	"Do not wait for further advice if you're experiencing:\n" +
	"• Chest pain or pressure\n" +
	"• Difficulty breathing\n" +
	"• Severe bleeding\n" +
	"• Loss of consciousness"

const symptomResponse = "I understand you're experiencing symptoms. While I'm in basic mode right now, here's general guidance:\n\n" +
	"• Monitor your symptoms and note any changes\n" +
	"• Stay hydrated and get adequate rest\n" +
	"• For fever over 101.3°F (38.5°C), consider seeing a healthcare provider\n" +
	"• If symptoms worsen rapidly, seek medical attention\n\n" +
	"⚠️ For proper diagnosis and treatment, please consult with a healthcare professional.\n\n" +
	"**Emergency contacts:**\n" +
	"• Emergency: 911\n" +
	"• Poison Control: 1-800-222-1222"

const medicationResponse = "For medication questions in basic mode:\n\n" +
	"💊 **General guidance:**\n" +
	"• Always take medications as prescribed\n" +
	"• Don't stop medications suddenly without consulting your doctor\n" +
	"• Keep an updated list of all medications\n" +
	"• Check with pharmacists about interactions\n\n" +
	"⚠️ **Never change medication dosages without medical supervision.**\n\n" +
	"For specific medication advice, please contact:\n" +
	"• Your pharmacist\n" +
	"• Your healthcare provider\n" +
	"• Poison Control: 1-800-222-1222 (for emergencies)"

const generalResponse = "I'm currently in basic mode due to connection issues, but I can still help with general health information.\n\n" +
	"📞 **Important contacts:**\n" +
	"• Emergency: 911\n" +
	"• Poison Control: 1-800-222-1222\n" +
	"• Crisis Text Line: Text HOME to 741741\n\n" +
	"🏥 **When to seek immediate care:**\n" +
	"• Chest pain or pressure\n" +
	"• Difficulty breathing\n" +
	"• Severe bleeding\n" +
	"• High fever (over 103°F)\n" +
	"• Severe injuries\n\n" +
	"💡 **General health tips:**\n" +
	"• Stay hydrated\n" +
	"• Get adequate rest\n" +
	"• Maintain a balanced diet\n" +
	"• Exercise regularly\n" +
	"• Follow up with healthcare providers\n\n" +
	"For specific medical advice, please contact your healthcare provider directly."

var offlineTable = []struct {
	keywords []string
	response string
}{
	{keywords: []string{"emergency", "urgent", "chest pain", "cant breathe", "can't breathe", "bleeding"}, response: emergencyResponse},
	{keywords: []string{"symptom", "pain", "fever", "headache"}, response: symptomResponse},
	{keywords: []string{"medication", "drug"}, response: medicationResponse},
}

// offlineResponse picks canned guidance by keyword; earlier rows win.
func offlineResponse(message string) string {
	lower := strings.ToLower(message)
	for _, row := range offlineTable {
		for _, keyword := range row.keywords {
			if strings.Contains(lower, keyword) {
				return row.response
			}
		}
	}
	return generalResponse
}
