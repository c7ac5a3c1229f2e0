package core

// DefaultGeography is the governorate/zone lookup written by the setup tool
// and used by the in-memory backend when no seed file is present.
var DefaultGeography = [][2]string{
	{"العاصمة", "المرقاب"},
	{"العاصمة", "الشرقية"},
	{"العاصمة", "القبلة"},
	{"العاصمة", "الوطية"},
	{"العاصمة", "الدعية"},
	{"العاصمة", "النزهة"},
	{"الأحمدي", "الأحمدي"},
	{"الأحمدي", "الفنطاس"},
	{"الأحمدي", "الرقة"},
	{"الأحمدي", "العقيلة"},
	{"الأحمدي", "الوفرة"},
	{"الأحمدي", "جنوب الأحمدي"},
	{"الفروانية", "الفروانية"},
	{"الفروانية", "العارضية"},
	{"الفروانية", "الرويعي"},
	{"الفروانية", "الجنوبية"},
	{"الفروانية", "السالمية"},
	{"الفروانية", "أم الهيمان"},
	{"الجهراء", "الجهراء"},
	{"الجهراء", "أم القيصر"},
	{"الجهراء", "الصبية"},
	{"الجهراء", "الجابرية"},
	{"الجهراء", "واحة"},
	{"مبارك الكبير", "مبارك الكبير"},
	{"مبارك الكبير", "الرقعي"},
	{"مبارك الكبير", "أم الياسين"},
	{"مبارك الكبير", "الناعم"},
	{"حولي", "حولي"},
	{"حولي", "الشامية"},
	{"حولي", "الشرق"},
	{"حولي", "بنيد القار"},
	{"حولي", "الرحاب"},
	{"حولي", "علي صباح السالم"},
}

// DemoUsers are the accounts seeded for a fresh installation. Their initial
// password is the national ID, like any user created by an admin.
var DemoUsers = []User{
	{NationalID: "12345678", Name: "محمد الإدارة", Mosque: "مسجد النور", Role: RoleAdmin},
	{NationalID: "87654321", Name: "أحمد المستخدم", Mosque: "مسجد السلام", Role: RoleUser},
}
