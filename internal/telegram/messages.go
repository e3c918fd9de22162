package telegram

// Outbound message templates. All rich replies use Telegram's HTML subset;
// dynamic values are escaped before interpolation.
const (
	msgWelcome = `🌱 <b>Welcome to the plant identifier!</b>

Send me a photo of a plant and I will tell you what it is and how to care for it.

Use /help to see what I can do.`

	msgHelp = `🌿 <b>How to use this bot</b>

📷 Send a photo of a plant — I will identify the species and reply with care instructions.

<b>Tips for good results:</b>
• Photograph leaves, flowers or the whole plant up close
• Use daylight and keep the plant in focus
• One plant per photo works best`

	msgProcessing  = `🔍 Photo received, analyzing...`
	msgRecognizing = `🌿 Identifying the plant...`

	// %s carries the escaped error text.
	msgRecognitionFailed = `❌ <b>Could not identify the plant.</b>

%s

Try another photo with better light or a closer view.`

	msgProcessingFailed = `⚠️ <b>Something went wrong while processing your photo.</b>

%s

Please try again.`

	// %s species name, %.1f confidence percentage, %s advisory body.
	msgIdentified = `🌱 <b>%s</b>
🔎 Confidence: %.1f%%

%s`

	msgAdviceUnavailable = `Detailed care advice could not be retrieved right now. Try sending the photo again later.`

	msgTextFallback = `🌱 Send me a photo of a plant to identify it, or use /help for instructions.`

	msgAdminsOnly = `⛔ This command is for admins only.`

	msgBroadcastPrompt = `📣 Send the message you want to broadcast to all users.

Use /cancel to abort.`

	msgBroadcastCancelled = `✅ Broadcast cancelled.`
	msgNothingToCancel    = `Nothing to cancel.`

	// %d attempted, %d total. Sent once and edited in place as the run advances.
	msgBroadcastProgress = `📤 Sending broadcast...
%d/%d done`

	// %s carries the admin-provided announcement body, delivered as HTML.
	msgBroadcastPayload = `📢 <b>Announcement:</b>

%s`

	// %d delivered, %d failed, %d total.
	msgBroadcastDone = `✅ <b>Broadcast finished.</b>

Delivered: %d
Failed: %d
Total: %d`

	msgAdminHelp = `🛠 <b>Admin commands</b>

/stats — usage statistics
/plants — top 20 identified species
/broadcast — send a message to all users
/cancel — abort a pending broadcast
/adminhelp — this message`

	// Stats template: total recipients, active today, species, occurrences.
	msgStats = `📊 <b>Bot statistics</b>

👥 Total users: %d
🌞 Active today: %d
🌿 Distinct species: %d
🔁 Total identifications: %d`

	msgLeaderboardHeader = `🏆 <b>Top identified plants</b>

`
	msgLeaderboardEmpty = `No plants identified yet.`
)
