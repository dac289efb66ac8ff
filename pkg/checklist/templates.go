package checklist

// Static task templates per job-card code. These mirror the baseline rows the
// seeding loads into defined_checklist_items and keep the provisioner working
// when the managed store is empty or unreachable.
var staticChecklists = map[string][]GeneratedTask{
	"INSPECTION": {
		{Task: "بازرسی ظاهری و ایمنی"},
		{Task: "بررسی صدا و لرزش غیرعادی"},
		{Task: "کنترل نشتی و سطوح روانکار"},
	},
	"LUBRICATION": {
		{Task: "کنترل سطح روغن و گریس"},
		{Task: "گریس‌کاری نقاط مشخص شده"},
		{Task: "پاکسازی آلودگی اطراف گریس‌خورها"},
	},
	"THERMOGRAPHY": {
		{Task: "بررسی دمای نقاط بحرانی"},
		{Task: "شناسایی اتصال داغ و ناهنجاری دمایی"},
		{Task: "ثبت مقادیر دما و مقایسه با روند قبلی"},
	},
	"PM": {
		{Task: "کنترل سفتی اتصالات و پیچ‌ها"},
		{Task: "تمیزکاری موضعی و رفع آلودگی"},
		{Task: "بررسی عملکرد تجهیز پس از سرویس"},
	},
}

// Keyword synonym table mapping activity display names (Persian or English)
// to a static job-card code. Matching is substring, case-insensitive.
var activityCodeByKeyword = []struct {
	Keyword string
	Code    string
}{
	{"inspection", "INSPECTION"},
	{"lubrication", "LUBRICATION"},
	{"thermography", "THERMOGRAPHY"},
	{"preventive maintenance", "PM"},
	{"pm", "PM"},
	{"بازرسی", "INSPECTION"},
	{"روانکاری", "LUBRICATION"},
	{"ترموگرافی", "THERMOGRAPHY"},
	{"نگهداری و تعمیرات پیشگیرانه", "PM"},
}

// FallbackChecklist is the fixed generic checklist used when every other
// resolution step fails. Works for any rotating equipment.
func FallbackChecklist() []GeneratedTask {
	return []GeneratedTask{
		{Task: "بازرسی نشتی روغن و گریس", Description: "بررسی کلیه اتصالات و درپوش‌ها جهت اطمینان از عدم نشتی"},
		{Task: "بررسی صدا و لرزش غیرعادی", Description: "گوش دادن به صدای تجهیز و بررسی لرزش‌های غیرمعمول در حین کار"},
		{Task: "کنترل دمای بیرینگ‌ها و بدنه", Description: "لمس یا استفاده از ترمومتر برای اطمینان از عدم داغ شدن بیش از حد"},
		{Task: "بررسی وضعیت پیچ و مهره‌ها", Description: "اطمینان از محکم بودن اتصالات و پیچ‌های فونداسیون"},
		{Task: "نظافت عمومی تجهیز", Description: "تمیز کردن گرد و غبار و مواد زائد از روی بدنه و محیط پیرامون"},
		{Task: "بررسی ایمنی و حفاظ‌ها", Description: "اطمینان از نصب صحیح گاردها و علائم هشدار دهنده"},
	}
}
