package translation

// dictionary holds the built-in UI and clinical phrases. Keys are
// dictionaryKey forms of the English text.
var dictionary = map[string]map[string]string{
	"en": {
		"hello":                 "Hello",
		"welcome":               "Welcome",
		"health":                "Health",
		"doctor":                "Doctor",
		"patient":               "Patient",
		"appointment":           "Appointment",
		"symptoms":              "Symptoms",
		"medicine":              "Medicine",
		"emergency":             "Emergency",
		"clinic":                "Clinic",
		"consultation":          "Consultation",
		"records":               "Records",
		"education":             "Education",
		"book_appointment":      "Book Appointment",
		"ai_assistant":          "AI Health Assistant",
		"voice_consultation":    "Voice Consultation",
		"video_call":            "Video Call",
		"chat":                  "Chat",
		"notifications":         "Notifications",
		"dashboard":             "Dashboard",
		"profile":               "Profile",
		"settings":              "Settings",
		"logout":                "Logout",
		"login":                 "Login",
		"register":              "Register",
		"email":                 "Email",
		"password":              "Password",
		"name":                  "Name",
		"phone":                 "Phone",
		"address":               "Address",
		"age":                   "Age",
		"gender":                "Gender",
		"medical_history":       "Medical History",
		"current_medications":   "Current Medications",
		"allergies":             "Allergies",
		"blood_type":            "Blood Type",
		"emergency_contact":     "Emergency Contact",
		"describe_symptoms":     "Please describe your symptoms",
		"ai_analyzing":          "AI is analyzing your symptoms...",
		"speak_now":             "Speak now",
		"listening":             "Listening...",
		"processing":            "Processing...",
		"translating":           "Translating...",
		"translation_error":     "Translation error occurred",
		"microphone_access":     "Microphone access required",
		"browser_not_supported": "Voice features are not supported on this system",
	},
	"zu": {
		"hello":                       "Sawubona",
		"welcome":                     "Siyakwamukela",
		"health":                      "Impilo",
		"doctor":                      "Udokotela",
		"patient":                     "Isiguli",
		"appointment":                 "Isikhathi sokubonana",
		"symptoms":                    "Izimpawu",
		"medicine":                    "Umuthi",
		"emergency":                   "Isimo esiphuthumayo",
		"clinic":                      "Umtholampilo",
		"consultation":                "Ukuhlolwa",
		"records":                     "Amarekhodi",
		"education":                   "Imfundo",
		"book_appointment":            "Bhukha Isikhathi",
		"ai_assistant":                "Umsizi we-AI Wezempilo",
		"voice_consultation":          "Ukuhlolwa Ngezwi",
		"video_call":                  "Ucingo Lwevidiyo",
		"chat":                        "Ingxoxo",
		"notifications":               "Izaziso",
		"dashboard":                   "Ibhodi Elikhulu",
		"profile":                     "Iphrofayili",
		"settings":                    "Izilungiselelo",
		"logout":                      "Phuma",
		"login":                       "Ngena",
		"register":                    "Bhalisa",
		"email":                       "I-imeyili",
		"password":                    "Iphasiwedi",
		"name":                        "Igama",
		"phone":                       "Ifoni",
		"address":                     "Ikheli",
		"age":                         "Iminyaka",
		"gender":                      "Ubulili",
		"medical_history":             "Umlando Wezokwelapha",
		"current_medications":         "Imithi Yamanje",
		"allergies":                   "Izimo Zokungalaleli",
		"blood_type":                  "Uhlobo Lwegazi",
		"emergency_contact":           "Othintana Naye Esimeni Esiphuthumayo",
		"describe_symptoms":           "Sicela uchaze izimpawu zakho",
		"ai_analyzing":                "I-AI ihlaziya izimpawu zakho...",
		"speak_now":                   "Khuluma manje",
		"listening":                   "Ngilalele...",
		"processing":                  "Ngicubungula...",
		"translating":                 "Ngihumusha...",
		"translation_error":           "Kube nephutha lokuhumusha",
		"microphone_access":           "Kudingeka ukufinyelela kwemakrofoni",
		"browser_not_supported":       "Izici zezwi azisekelwa kulolu hlelo",
		"how_are_you?":                "Unjani?",
		"i_need_help":                 "Ngidinga usizo",
		"thank_you":                   "Ngiyabonga",
		"pain":                        "Ubuhlungu",
		"headache":                    "Ikhanda elibuhlungu",
		"fever":                       "Umkhuhlane",
		"cough":                       "Ukukhwehlela",
		"chest_pain":                  "Ubuhlungu esifubeni",
		"difficulty_breathing":        "Ukuphefumula kanzima",
		"when_did_this_start?":        "Kuqale nini lokhu?",
		"how_long_have_you_had_this?": "Uselokhu unalokhu isikhathi esingakanani?",
		"take_this_medicine":          "Thatha lo muthi",
		"come_back_in_3_days":         "Buya emva kwezinsuku ezi-3",
		"call_ambulance":              "Shayela i-ambulensi",
	},
	"xh": {
		"hello":                       "Molo",
		"welcome":                     "Wamkelekile",
		"health":                      "Impilo",
		"doctor":                      "Ugqirha",
		"patient":                     "Isigulana",
		"appointment":                 "Idinga",
		"symptoms":                    "Iimpawu",
		"medicine":                    "Iyeza",
		"emergency":                   "Ingxaki ebukhali",
		"clinic":                      "Iklinikhi",
		"consultation":                "Ukubonana",
		"records":                     "Iirekhodi",
		"education":                   "Imfundo",
		"book_appointment":            "Bhukisha Idinga",
		"ai_assistant":                "Umncedisi we-AI Wezempilo",
		"voice_consultation":          "Ukubonana Ngelizwi",
		"video_call":                  "Umnxeba Wevidiyo",
		"chat":                        "Incoko",
		"notifications":               "Izaziso",
		"dashboard":                   "Ibhodi Yolawulo",
		"profile":                     "Iprofayile",
		"settings":                    "Iisetingi",
		"logout":                      "Phuma",
		"login":                       "Ngena",
		"register":                    "Bhalisa",
		"email":                       "I-imeyile",
		"password":                    "Igama lokugqitha",
		"name":                        "Igama",
		"phone":                       "Ifowuni",
		"address":                     "Idilesi",
		"age":                         "Ubudala",
		"gender":                      "Isini",
		"medical_history":             "Imbali Yonyango",
		"current_medications":         "Amayeza Angoku",
		"allergies":                   "Izinto Ezingakuvumeliyo",
		"blood_type":                  "Uhlobo Lwegazi",
		"emergency_contact":           "Umntu Wokuqhagamshelana Naye Kwingxaki",
		"describe_symptoms":           "Nceda chaza iimpawu zakho",
		"ai_analyzing":                "I-AI icacisa iimpawu zakho...",
		"speak_now":                   "Thetha ngoku",
		"listening":                   "Ndimamele...",
		"processing":                  "Ndicwangcisa...",
		"translating":                 "Ndiguqula...",
		"translation_error":           "Kuye kwakho imposiso yokuguqula",
		"microphone_access":           "Kufuneka ufikelelo kwimakrofoni",
		"browser_not_supported":       "Iimpawu zelizwi azixhaswanga kule nkqubo",
		"how_are_you?":                "Unjani?",
		"i_need_help":                 "Ndidinga uncedo",
		"thank_you":                   "Enkosi",
		"pain":                        "Intlungu",
		"headache":                    "Iintloko",
		"fever":                       "Umkhuhlane",
		"cough":                       "Ukukhohlela",
		"chest_pain":                  "Iintlungu zesifuba",
		"difficulty_breathing":        "Ukuphefumla nzima",
		"when_did_this_start?":        "Kuqale nini?",
		"how_long_have_you_had_this?": "Uselixesha elingakanani unalo?",
		"take_this_medicine":          "Thatha eli yeza",
		"come_back_in_3_days":         "Buyela emva kweentsuku ezi-3",
		"call_ambulance":              "Biza i-ambulensi",
	},
}
